package protocol

import (
	"time"

	"circulation/internal/domain/entity"
)

// Request is a decoded, typed command payload. The set of implementations
// is closed: only types in this package satisfy it.
type Request interface {
	Verb() Verb
	request()
}

type sealed struct{}

func (sealed) request() {}

// Session

type LoginRequest struct {
	sealed
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LogoutRequest struct{ sealed }

type RegisterRequest struct {
	sealed
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=30"`
	Faculty  string `json:"faculty" validate:"max=100"`
}

type ResumeSessionRequest struct {
	sealed
	SessionToken string `json:"sessionToken" validate:"required"`
}

type CheckUserStatusRequest struct{ sealed }

// Catalog

// BookFields are the descriptive fields shared by ADD_BOOK and UPDATE_BOOK.
type BookFields struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	ISBN        string `json:"isbn" validate:"max=20"`
	Category    string `json:"category" validate:"max=100"`
	Year        int    `json:"year" validate:"min=0,max=9999"`
	Price       int64  `json:"price" validate:"min=0"`
	PageCount   int    `json:"pageCount" validate:"min=0"`
	Description string `json:"description"`
}

type GetAllBooksRequest struct{ sealed }

type SearchBooksRequest struct {
	sealed
	Keyword       string `json:"keyword"`
	Category      string `json:"category"`
	Author        string `json:"author"`
	AvailableOnly bool   `json:"availableOnly"`
}

type GetBookByIDRequest struct {
	sealed
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

type AddBookRequest struct {
	sealed
	BookFields
	InitialCopies int    `json:"initialCopies" validate:"min=0,max=100"`
	ShelfLocation string `json:"shelfLocation" validate:"max=50"`
}

type UpdateBookRequest struct {
	sealed
	BookID int64 `json:"bookId" validate:"required,gt=0"`
	BookFields
}

type DeleteBookRequest struct {
	sealed
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

type GetBookCopiesRequest struct {
	sealed
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

type AddBookCopyRequest struct {
	sealed
	BookID        int64  `json:"bookId" validate:"required,gt=0"`
	Quantity      int    `json:"quantity" validate:"min=0,max=100"`
	ShelfLocation string `json:"shelfLocation" validate:"max=50"`
	Notes         string `json:"notes" validate:"max=255"`
}

type UpdateBookCopyRequest struct {
	sealed
	CopyID        int64   `json:"copyId" validate:"required,gt=0"`
	ShelfLocation *string `json:"shelfLocation,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=255"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE LOST DAMAGED"`
}

type DeleteBookCopyRequest struct {
	sealed
	CopyID int64 `json:"copyId" validate:"required,gt=0"`
}

type GetCopyLabelRequest struct {
	sealed
	CopyID int64 `json:"copyId" validate:"required,gt=0"`
}

// Accounts

type GetAllUsersRequest struct {
	sealed
	Keyword string `json:"keyword"`
	Role    string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
	Status  string `json:"status" validate:"omitempty,oneof=ACTIVE LOCKED"`
}

type GetUserByIDRequest struct {
	sealed
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type AddUserRequest struct {
	sealed
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=30"`
	Faculty  string `json:"faculty" validate:"max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

type UpdateUserRequest struct {
	sealed
	UserID   int64   `json:"userId" validate:"required,gt=0"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"fullName,omitempty" validate:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Faculty  *string `json:"faculty,omitempty" validate:"omitempty,max=100"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN USER"`
}

type DeleteUserRequest struct {
	sealed
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type LockUserRequest struct {
	sealed
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type UnlockUserRequest struct {
	sealed
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type ResetPasswordRequest struct {
	sealed
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Circulation

// BorrowBookRequest borrows for UserID, or for the session's own account
// when UserID is zero.
type BorrowBookRequest struct {
	sealed
	BookID int64 `json:"bookId" validate:"required,gt=0"`
	UserID int64 `json:"userId" validate:"min=0"`
}

type ReturnBookRequest struct {
	sealed
	RecordID int64 `json:"recordId" validate:"required,gt=0"`
}

type RenewBookRequest struct {
	sealed
	RecordID int64 `json:"recordId" validate:"required,gt=0"`
}

type MarkLostRequest struct {
	sealed
	RecordID int64 `json:"recordId" validate:"required,gt=0"`
}

type MarkDamagedRequest struct {
	sealed
	RecordID int64 `json:"recordId" validate:"required,gt=0"`
}

type ForceReturnRequest struct {
	sealed
	RecordID int64 `json:"recordId" validate:"required,gt=0"`
}

// GetUserBorrowRecordsRequest lists one user's records, the session's own
// when UserID is zero. Status accepts BORROWED as a synonym of BORROWING.
type GetUserBorrowRecordsRequest struct {
	sealed
	UserID int64  `json:"userId" validate:"min=0"`
	Status string `json:"status"`
}

type GetAllBorrowRecordsRequest struct {
	sealed
	UserID      int64      `json:"userId" validate:"min=0"`
	Status      string     `json:"status"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	OverdueOnly bool       `json:"overdueOnly"`
}

// Reports

type GetDashboardStatsRequest struct{ sealed }

type GetBookReportRequest struct{ sealed }

type GetUserReportRequest struct{ sealed }

type GetBorrowReportRequest struct {
	sealed
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type GetPenaltyReportRequest struct{ sealed }

// Notifications

type GetUserNotificationsRequest struct {
	sealed
	UserID     int64 `json:"userId" validate:"min=0"`
	UnreadOnly bool  `json:"unreadOnly"`
}

type MarkNotificationReadRequest struct {
	sealed
	NotificationID int64 `json:"notificationId" validate:"required,gt=0"`
}

// Settings

type GetSettingsRequest struct{ sealed }

// UpdateSettingsRequest replaces the whole policy document; absent fields
// take their defaults.
type UpdateSettingsRequest struct {
	sealed
	entity.SettingsUpdate
}

func (*LoginRequest) Verb() Verb { return VerbLogin }
func (*LogoutRequest) Verb() Verb { return VerbLogout }
func (*RegisterRequest) Verb() Verb { return VerbRegister }
func (*ResumeSessionRequest) Verb() Verb { return VerbResumeSession }
func (*CheckUserStatusRequest) Verb() Verb { return VerbCheckUserStatus }
func (*GetAllBooksRequest) Verb() Verb { return VerbGetAllBooks }
func (*SearchBooksRequest) Verb() Verb { return VerbSearchBooks }
func (*GetBookByIDRequest) Verb() Verb { return VerbGetBookByID }
func (*AddBookRequest) Verb() Verb { return VerbAddBook }
func (*UpdateBookRequest) Verb() Verb { return VerbUpdateBook }
func (*DeleteBookRequest) Verb() Verb { return VerbDeleteBook }
func (*GetBookCopiesRequest) Verb() Verb { return VerbGetBookCopies }
func (*AddBookCopyRequest) Verb() Verb { return VerbAddBookCopy }
func (*UpdateBookCopyRequest) Verb() Verb { return VerbUpdateBookCopy }
func (*DeleteBookCopyRequest) Verb() Verb { return VerbDeleteBookCopy }
func (*GetCopyLabelRequest) Verb() Verb { return VerbGetCopyLabel }
func (*GetAllUsersRequest) Verb() Verb { return VerbGetAllUsers }
func (*GetUserByIDRequest) Verb() Verb { return VerbGetUserByID }
func (*AddUserRequest) Verb() Verb { return VerbAddUser }
func (*UpdateUserRequest) Verb() Verb { return VerbUpdateUser }
func (*DeleteUserRequest) Verb() Verb { return VerbDeleteUser }
func (*LockUserRequest) Verb() Verb { return VerbLockUser }
func (*UnlockUserRequest) Verb() Verb { return VerbUnlockUser }
func (*ResetPasswordRequest) Verb() Verb { return VerbResetPassword }
func (*BorrowBookRequest) Verb() Verb { return VerbBorrowBook }
func (*ReturnBookRequest) Verb() Verb { return VerbReturnBook }
func (*RenewBookRequest) Verb() Verb { return VerbRenewBook }
func (*MarkLostRequest) Verb() Verb { return VerbMarkLost }
func (*MarkDamagedRequest) Verb() Verb { return VerbMarkDamaged }
func (*ForceReturnRequest) Verb() Verb { return VerbForceReturn }
func (*GetUserBorrowRecordsRequest) Verb() Verb { return VerbGetUserBorrowRecords }
func (*GetAllBorrowRecordsRequest) Verb() Verb { return VerbGetAllBorrowRecords }
func (*GetDashboardStatsRequest) Verb() Verb { return VerbGetDashboardStats }
func (*GetBookReportRequest) Verb() Verb { return VerbGetBookReport }
func (*GetUserReportRequest) Verb() Verb { return VerbGetUserReport }
func (*GetBorrowReportRequest) Verb() Verb { return VerbGetBorrowReport }
func (*GetPenaltyReportRequest) Verb() Verb { return VerbGetPenaltyReport }
func (*GetUserNotificationsRequest) Verb() Verb { return VerbGetUserNotifications }
func (*MarkNotificationReadRequest) Verb() Verb { return VerbMarkNotificationRead }
func (*GetSettingsRequest) Verb() Verb { return VerbGetSettings }
func (*UpdateSettingsRequest) Verb() Verb { return VerbUpdateSettings }
