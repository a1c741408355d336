// Package protocol defines the request/response envelopes exchanged over a
// client connection and the closed set of typed requests they carry.
package protocol

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Verb names a command on the wire.
type Verb string

const (
	VerbLogin         Verb = "LOGIN"
	VerbLogout        Verb = "LOGOUT"
	VerbRegister      Verb = "REGISTER"
	VerbResumeSession Verb = "RESUME_SESSION"

	VerbGetAllBooks    Verb = "GET_ALL_BOOKS"
	VerbSearchBooks    Verb = "SEARCH_BOOKS"
	VerbGetBookByID    Verb = "GET_BOOK_BY_ID"
	VerbAddBook        Verb = "ADD_BOOK"
	VerbUpdateBook     Verb = "UPDATE_BOOK"
	VerbDeleteBook     Verb = "DELETE_BOOK"
	VerbGetBookCopies  Verb = "GET_BOOK_COPIES"
	VerbAddBookCopy    Verb = "ADD_BOOK_COPY"
	VerbUpdateBookCopy Verb = "UPDATE_BOOK_COPY"
	VerbDeleteBookCopy Verb = "DELETE_BOOK_COPY"
	VerbGetCopyLabel   Verb = "GET_COPY_LABEL"

	VerbGetAllUsers     Verb = "GET_ALL_USERS"
	VerbGetUserByID     Verb = "GET_USER_BY_ID"
	VerbAddUser         Verb = "ADD_USER"
	VerbUpdateUser      Verb = "UPDATE_USER"
	VerbDeleteUser      Verb = "DELETE_USER"
	VerbLockUser        Verb = "LOCK_USER"
	VerbUnlockUser      Verb = "UNLOCK_USER"
	VerbResetPassword   Verb = "RESET_PASSWORD"
	VerbCheckUserStatus Verb = "CHECK_USER_STATUS"

	VerbBorrowBook           Verb = "BORROW_BOOK"
	VerbReturnBook           Verb = "RETURN_BOOK"
	VerbRenewBook            Verb = "RENEW_BOOK"
	VerbMarkLost             Verb = "MARK_LOST"
	VerbMarkDamaged          Verb = "MARK_DAMAGED"
	VerbForceReturn          Verb = "FORCE_RETURN"
	VerbGetUserBorrowRecords Verb = "GET_USER_BORROW_RECORDS"
	VerbGetAllBorrowRecords  Verb = "GET_ALL_BORROW_RECORDS"

	VerbGetDashboardStats Verb = "GET_DASHBOARD_STATS"
	VerbGetBookReport     Verb = "GET_BOOK_REPORT"
	VerbGetUserReport     Verb = "GET_USER_REPORT"
	VerbGetBorrowReport   Verb = "GET_BORROW_REPORT"
	VerbGetPenaltyReport  Verb = "GET_PENALTY_REPORT"

	VerbGetUserNotifications Verb = "GET_USER_NOTIFICATIONS"
	VerbMarkNotificationRead Verb = "MARK_NOTIFICATION_READ"

	VerbGetSettings    Verb = "GET_SETTINGS"
	VerbUpdateSettings Verb = "UPDATE_SETTINGS"

	// VerbForceLogout only appears on responses: the session's account was
	// locked or removed and the session has been unbound.
	VerbForceLogout Verb = "FORCE_LOGOUT"
)

// Envelope is one client request.
type Envelope struct {
	ID      string              `json:"id"`
	Command Verb                `json:"command"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Envelope. Code and Message are set when
// Success is false.
type Response struct {
	ID      string              `json:"id"`
	Command Verb                `json:"command"`
	Success bool                `json:"success"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// Success builds a successful response carrying payload.
func Success(id string, verb Verb, payload any) (*Response, error) {
	resp := &Response{ID: id, Command: verb, Success: true}
	if payload == nil {
		return resp, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp.Payload = raw

	return resp, nil
}

// Failure builds an unsuccessful response.
func Failure(id string, verb Verb, code, message string) *Response {
	return &Response{ID: id, Command: verb, Code: code, Message: message}
}

// EncodeResponse serializes a response for the wire.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse parses a response read from the wire.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DecodePayload unmarshals a response payload into out.
func (r *Response) DecodePayload(out any) error {
	if len(r.Payload) == 0 {
		return nil
	}

	return json.Unmarshal(r.Payload, out)
}
