package protocol

import (
	"time"

	"circulation/internal/domain/entity"
)

// SessionPayload answers LOGIN and RESUME_SESSION.
type SessionPayload struct {
	User         *entity.User `json:"user"`
	SessionID    string       `json:"sessionId"`
	SessionToken string       `json:"sessionToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// CopyLabelPayload answers GET_COPY_LABEL. PNG is base64 on the wire.
type CopyLabelPayload struct {
	BookID int64  `json:"bookId"`
	CopyID int64  `json:"copyId"`
	PNG    []byte `json:"png"`
}
