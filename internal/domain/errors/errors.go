package errors

import (
	"circulation/internal/errors"
)

// Kind classifies an application error for the delivery layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPolicy
	KindSession
	KindAuth
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindSession:
		return "session"
	case KindAuth:
		return "auth"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Error classification
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, errorCode, message, details string) *BaseError {
	return &BaseError{
		kind:      kind,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// Is matches another BaseError carrying the same code, so detailed copies
// still satisfy errors.Is against the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the error classification
func (e *BaseError) Kind() Kind {
	return e.kind
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		kind:      e.kind,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Catalog errors
	ErrBookNotFound = NewBaseError(
		KindNotFound,
		"BOOK_NOT_FOUND",
		"Book not found",
		"",
	)

	ErrCopyNotFound = NewBaseError(
		KindNotFound,
		"COPY_NOT_FOUND",
		"Book copy not found",
		"",
	)

	ErrCopyInUse = NewBaseError(
		KindPolicy,
		"COPY_IN_USE",
		"Book copy is currently borrowed",
		"",
	)

	ErrBookHasBorrowedCopies = NewBaseError(
		KindPolicy,
		"BOOK_HAS_BORROWED_COPIES",
		"Book still has borrowed copies",
		"",
	)

	ErrISBNAlreadyExists = NewBaseError(
		KindValidation,
		"ISBN_ALREADY_EXISTS",
		"A book with this ISBN already exists",
		"",
	)

	// Circulation errors
	ErrNoCopyAvailable = NewBaseError(
		KindPolicy,
		"NO_COPY_AVAILABLE",
		"No copy of this book is available",
		"",
	)

	ErrBorrowLimitExceeded = NewBaseError(
		KindPolicy,
		"BORROW_LIMIT_EXCEEDED",
		"Borrow limit reached",
		"",
	)

	ErrRecordNotFound = NewBaseError(
		KindNotFound,
		"RECORD_NOT_FOUND",
		"Borrow record not found",
		"",
	)

	ErrAlreadyReturned = NewBaseError(
		KindPolicy,
		"ALREADY_RETURNED",
		"Borrow record is already closed",
		"",
	)

	ErrInvalidRecordState = NewBaseError(
		KindPolicy,
		"INVALID_RECORD_STATE",
		"Borrow record is not in a state that allows this action",
		"",
	)

	// Account errors
	ErrUserNotFound = NewBaseError(
		KindNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		KindValidation,
		"USER_ALREADY_EXISTS",
		"Username or email is already registered",
		"",
	)

	ErrAccountLocked = NewBaseError(
		KindPolicy,
		"ACCOUNT_LOCKED",
		"Account is locked",
		"",
	)

	ErrSelfActionForbidden = NewBaseError(
		KindPolicy,
		"SELF_ACTION_FORBIDDEN",
		"Administrators cannot perform this action on their own account",
		"",
	)

	ErrUserHasActiveLoans = NewBaseError(
		KindPolicy,
		"USER_HAS_ACTIVE_LOANS",
		"User still has borrowed books",
		"",
	)

	ErrNotificationNotFound = NewBaseError(
		KindNotFound,
		"NOTIFICATION_NOT_FOUND",
		"Notification not found",
		"",
	)

	// Authentication errors
	ErrInvalidCredentials = NewBaseError(
		KindAuth,
		"INVALID_CREDENTIALS",
		"Invalid username or password",
		"",
	)

	ErrNotAuthenticated = NewBaseError(
		KindSession,
		"NOT_AUTHENTICATED",
		"Login required",
		"",
	)

	ErrForceLogout = NewBaseError(
		KindSession,
		"FORCE_LOGOUT",
		"Session ended: account is locked or removed",
		"",
	)

	ErrSessionTokenInvalid = NewBaseError(
		KindSession,
		"SESSION_TOKEN_INVALID",
		"Session token is invalid or expired",
		"",
	)

	ErrForbidden = NewBaseError(
		KindAuth,
		"FORBIDDEN",
		"Permission denied",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		KindInternal,
		"PASSWORD_HASH_FAILED",
		"Password processing failed",
		"",
	)

	// Protocol errors
	ErrUnknownCommand = NewBaseError(
		KindValidation,
		"UNKNOWN_COMMAND",
		"Unknown command",
		"",
	)

	ErrMalformedRequest = NewBaseError(
		KindValidation,
		"MALFORMED_REQUEST",
		"Request could not be decoded",
		"",
	)

	ErrValidationFailed = NewBaseError(
		KindValidation,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrRequestTimeout = NewBaseError(
		KindTimeout,
		"REQUEST_TIMEOUT",
		"Request timed out",
		"",
	)

	// Settings errors
	ErrInvalidSettings = NewBaseError(
		KindValidation,
		"INVALID_SETTINGS",
		"Settings are out of range",
		"",
	)

	// General errors
	ErrTransactionFailed = NewBaseError(
		KindInternal,
		"TRANSACTION_FAILED",
		"Database transaction failed",
		"",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Kind returns the error classification
func (e *DatabaseExecuteError) Kind() Kind {
	return KindInternal
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}
