package client

import (
	"fmt"

	"circulation/internal/errors"
	"circulation/internal/protocol"
)

var (
	// ErrDisconnected is returned when the connection is gone.
	ErrDisconnected = errors.New("connection to the server is closed")

	// ErrRequestTimeout is returned when no response arrived in time.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrForcedLogout is returned when the server ended the session because
	// the account was locked or removed. The session is closed afterwards.
	ErrForcedLogout = errors.New("session was ended by the server")
)

// ResponseError is an application failure answered by the server.
type ResponseError struct {
	Command protocol.Verb
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s failed: %s (%s)", e.Command, e.Message, e.Code)
}

// IsCode reports whether err is a ResponseError carrying code.
func IsCode(err error, code string) bool {
	respErr, ok := errors.AsType[*ResponseError](err)

	return ok && respErr.Code == code
}
