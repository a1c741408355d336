package entity

import (
	"strings"
	"time"
)

// RecordStatus is the lifecycle state of a BorrowRecord.
type RecordStatus string

const (
	// RecordBorrowing is the only non-terminal state.
	RecordBorrowing RecordStatus = "BORROWING"
	RecordReturned  RecordStatus = "RETURNED"
	RecordLost      RecordStatus = "LOST"
	RecordDamaged   RecordStatus = "DAMAGED"

	// recordBorrowedAlias is accepted on input as a synonym of BORROWING.
	recordBorrowedAlias = "BORROWED"
)

// String returns the string representation of the RecordStatus.
func (s RecordStatus) String() string {
	return string(s)
}

// IsValid checks if the RecordStatus is a valid value.
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordBorrowing, RecordReturned, RecordLost, RecordDamaged:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordReturned || s == RecordLost || s == RecordDamaged
}

// ParseRecordStatus normalizes a wire value, mapping BORROWED to BORROWING.
func ParseRecordStatus(s string) (RecordStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == recordBorrowedAlias {
		return RecordBorrowing, true
	}
	status := RecordStatus(normalized)

	return status, status.IsValid()
}

// BorrowRecord is one lending transaction linking a User, a Book and a Copy.
type BorrowRecord struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	BookID     int64        `json:"bookId"`
	CopyID     int64        `json:"copyId"`
	BookTitle  string       `json:"bookTitle"` // snapshot taken at borrow time
	BorrowDate time.Time    `json:"borrowDate"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnDate *time.Time   `json:"returnDate,omitempty"`
	Status     RecordStatus `json:"status"`
	Fine       int64        `json:"fine"`
	RenewCount int          `json:"renewCount"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// IsOverdue reports whether an open record is past its due date at now.
func (r *BorrowRecord) IsOverdue(now time.Time) bool {
	return r.Status == RecordBorrowing && now.After(r.DueDate)
}

// RecordFilter narrows record listings. Nil fields match everything.
type RecordFilter struct {
	UserID      *int64
	Status      *RecordStatus
	From        *time.Time // borrowDate >= From
	To          *time.Time // borrowDate < To
	OverdueOnly bool       // BORROWING and dueDate before the reference time
	Now         time.Time  // reference time for OverdueOnly
}
