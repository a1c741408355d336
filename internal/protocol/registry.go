package protocol

import (
	"bytes"
	"sort"

	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var registry = map[Verb]func() Request{
	VerbLogin:                func() Request { return &LoginRequest{} },
	VerbLogout:               func() Request { return &LogoutRequest{} },
	VerbRegister:             func() Request { return &RegisterRequest{} },
	VerbResumeSession:        func() Request { return &ResumeSessionRequest{} },
	VerbCheckUserStatus:      func() Request { return &CheckUserStatusRequest{} },
	VerbGetAllBooks:          func() Request { return &GetAllBooksRequest{} },
	VerbSearchBooks:          func() Request { return &SearchBooksRequest{} },
	VerbGetBookByID:          func() Request { return &GetBookByIDRequest{} },
	VerbAddBook:              func() Request { return &AddBookRequest{} },
	VerbUpdateBook:           func() Request { return &UpdateBookRequest{} },
	VerbDeleteBook:           func() Request { return &DeleteBookRequest{} },
	VerbGetBookCopies:        func() Request { return &GetBookCopiesRequest{} },
	VerbAddBookCopy:          func() Request { return &AddBookCopyRequest{} },
	VerbUpdateBookCopy:       func() Request { return &UpdateBookCopyRequest{} },
	VerbDeleteBookCopy:       func() Request { return &DeleteBookCopyRequest{} },
	VerbGetCopyLabel:         func() Request { return &GetCopyLabelRequest{} },
	VerbGetAllUsers:          func() Request { return &GetAllUsersRequest{} },
	VerbGetUserByID:          func() Request { return &GetUserByIDRequest{} },
	VerbAddUser:              func() Request { return &AddUserRequest{} },
	VerbUpdateUser:           func() Request { return &UpdateUserRequest{} },
	VerbDeleteUser:           func() Request { return &DeleteUserRequest{} },
	VerbLockUser:             func() Request { return &LockUserRequest{} },
	VerbUnlockUser:           func() Request { return &UnlockUserRequest{} },
	VerbResetPassword:        func() Request { return &ResetPasswordRequest{} },
	VerbBorrowBook:           func() Request { return &BorrowBookRequest{} },
	VerbReturnBook:           func() Request { return &ReturnBookRequest{} },
	VerbRenewBook:            func() Request { return &RenewBookRequest{} },
	VerbMarkLost:             func() Request { return &MarkLostRequest{} },
	VerbMarkDamaged:          func() Request { return &MarkDamagedRequest{} },
	VerbForceReturn:          func() Request { return &ForceReturnRequest{} },
	VerbGetUserBorrowRecords: func() Request { return &GetUserBorrowRecordsRequest{} },
	VerbGetAllBorrowRecords:  func() Request { return &GetAllBorrowRecordsRequest{} },
	VerbGetDashboardStats:    func() Request { return &GetDashboardStatsRequest{} },
	VerbGetBookReport:        func() Request { return &GetBookReportRequest{} },
	VerbGetUserReport:        func() Request { return &GetUserReportRequest{} },
	VerbGetBorrowReport:      func() Request { return &GetBorrowReportRequest{} },
	VerbGetPenaltyReport:     func() Request { return &GetPenaltyReportRequest{} },
	VerbGetUserNotifications: func() Request { return &GetUserNotificationsRequest{} },
	VerbMarkNotificationRead: func() Request { return &MarkNotificationReadRequest{} },
	VerbGetSettings:          func() Request { return &GetSettingsRequest{} },
	VerbUpdateSettings:       func() Request { return &UpdateSettingsRequest{} },
}

// Verbs returns every request verb in lexical order.
func Verbs() []Verb {
	verbs := make([]Verb, 0, len(registry))
	for verb := range registry {
		verbs = append(verbs, verb)
	}
	sort.Slice(verbs, func(i, j int) bool { return verbs[i] < verbs[j] })

	return verbs
}

// New returns an empty request for verb.
func New(verb Verb) (Request, bool) {
	factory, ok := registry[verb]
	if !ok {
		return nil, false
	}

	return factory(), true
}

// Decoder turns raw frames into typed, validated requests.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{validate: util.NewValidator()}
}

// Decode parses one frame. The returned envelope carries whatever id and
// command could be read, so a failure can still be answered in kind.
//
//	ERROR: MALFORMED_REQUEST if the frame or payload is not valid JSON
//	ERROR: UNKNOWN_COMMAND if the verb is not registered
//	ERROR: VALIDATION_FAILED if the payload breaks a field constraint
func (d *Decoder) Decode(data []byte) (Envelope, Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, nil, domainerrors.ErrMalformedRequest.WithDetails(err.Error())
	}

	req, ok := New(env.Command)
	if !ok {
		return env, nil, domainerrors.ErrUnknownCommand.WithDetails(string(env.Command))
	}

	if payload := bytes.TrimSpace(env.Payload); len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
		if err := json.Unmarshal(payload, req); err != nil {
			return env, nil, domainerrors.ErrMalformedRequest.WithDetails(err.Error())
		}
	}

	if err := d.validate.Struct(req); err != nil {
		return env, nil, domainerrors.ErrValidationFailed.WithDetails(util.DescribeValidationError(err))
	}

	return env, req, nil
}

// EncodeRequest builds the frame for req.
func EncodeRequest(id string, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s payload", req.Verb())
	}

	return json.Marshal(Envelope{ID: id, Command: req.Verb(), Payload: payload})
}
