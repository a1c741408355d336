// Package circulation holds the borrow-record state machine as pure
// decision functions. Callers load a snapshot, decide, and apply the
// outcome inside one transaction.
package circulation

import (
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/fine"
)

// Action is a transition requested on an open BorrowRecord.
type Action string

const (
	ActionReturn      Action = "RETURN"
	ActionForceReturn Action = "FORCE_RETURN"
	ActionRenew       Action = "RENEW"
	ActionMarkLost    Action = "MARK_LOST"
	ActionMarkDamaged Action = "MARK_DAMAGED"
)

// GuardsAccount reports whether the acting account must be ACTIVE.
func (a Action) GuardsAccount() bool {
	return a != ActionForceReturn
}

// GuardsOwner reports whether the record's owner must also be ACTIVE when
// staff act on it. Staff may write off a locked member's lost or damaged
// copy; returning or renewing it needs an unlock or FORCE_RETURN.
func (a Action) GuardsOwner() bool {
	return a == ActionReturn || a == ActionRenew
}

// BorrowState is the snapshot a borrow decision is made on.
type BorrowState struct {
	Borrower  *entity.User
	Book      *entity.Book
	OpenLoans int // BORROWING records of the borrower
	Settings  entity.Settings
	Now       time.Time
}

// BorrowDecision is what a successful borrow creates.
type BorrowDecision struct {
	BorrowDate time.Time
	DueDate    time.Time
}

// DecideBorrow checks the borrow preconditions.
//
//	ERROR: ACCOUNT_LOCKED if the borrower is locked
//	ERROR: BORROW_LIMIT_EXCEEDED if the borrower holds maxBorrowBooks open loans
//	ERROR: NO_COPY_AVAILABLE if the book has no available copy
//
// The copy claim itself is still made by a conditional update, so a
// positive decision does not guarantee a copy under concurrency.
func DecideBorrow(s BorrowState) (BorrowDecision, error) {
	if s.Borrower.IsLocked() {
		return BorrowDecision{}, domainerrors.ErrAccountLocked
	}

	if s.OpenLoans >= s.Settings.MaxBorrowBooks {
		return BorrowDecision{}, domainerrors.ErrBorrowLimitExceeded
	}

	if s.Book.AvailableCopies <= 0 {
		return BorrowDecision{}, domainerrors.ErrNoCopyAvailable
	}

	return BorrowDecision{
		BorrowDate: s.Now,
		DueDate:    s.Now.AddDate(0, 0, s.Settings.MaxBorrowDays),
	}, nil
}

// Outcome is the effect of a transition on the record, its copy and the
// borrower's caches.
type Outcome struct {
	Status     entity.RecordStatus
	DueDate    time.Time
	ReturnDate *time.Time
	Fine       int64

	// CopyStatus is the copy's new status; empty leaves it untouched.
	CopyStatus entity.CopyStatus
	// RestoresAvailability adds the copy back to Book.availableCopies.
	RestoresAvailability bool
	// ClosesLoan decrements the borrower's currentBorrowed.
	ClosesLoan bool
	Renewed    bool

	Notification entity.NotificationType
}

// Apply writes the outcome onto the record.
func (o Outcome) Apply(record *entity.BorrowRecord) {
	if o.Renewed {
		record.RenewCount++
	}
	record.Status = o.Status
	record.DueDate = o.DueDate
	record.ReturnDate = o.ReturnDate
	record.Fine = o.Fine
}

// Decide computes a transition on record. Terminal records never change:
// RETURN and FORCE_RETURN fail with ALREADY_RETURNED, the other actions
// with INVALID_RECORD_STATE.
func Decide(action Action, record entity.BorrowRecord, settings entity.Settings, calc *fine.Calculator, now time.Time) (Outcome, error) {
	if record.Status.IsTerminal() {
		switch action {
		case ActionReturn, ActionForceReturn:
			return Outcome{}, domainerrors.ErrAlreadyReturned
		default:
			return Outcome{}, domainerrors.ErrInvalidRecordState
		}
	}

	if record.Status != entity.RecordBorrowing {
		return Outcome{}, domainerrors.ErrInvalidRecordState
	}

	returnedAt := now

	switch action {
	case ActionReturn, ActionForceReturn:
		return Outcome{
			Status:               entity.RecordReturned,
			DueDate:              record.DueDate,
			ReturnDate:           &returnedAt,
			Fine:                 calc.OverdueFine(record.DueDate, now, settings.OverdueFinePerDay),
			CopyStatus:           entity.CopyAvailable,
			RestoresAvailability: true,
			ClosesLoan:           true,
			Notification:         entity.NotificationReturned,
		}, nil

	case ActionRenew:
		return Outcome{
			Status:       entity.RecordBorrowing,
			DueDate:      record.DueDate.AddDate(0, 0, settings.RenewalDays),
			Fine:         record.Fine,
			Renewed:      true,
			Notification: entity.NotificationRenewed,
		}, nil

	case ActionMarkLost:
		return Outcome{
			Status:       entity.RecordLost,
			DueDate:      record.DueDate,
			ReturnDate:   &returnedAt,
			Fine:         fine.LostFine(settings),
			CopyStatus:   entity.CopyLost,
			ClosesLoan:   true,
			Notification: entity.NotificationLost,
		}, nil

	case ActionMarkDamaged:
		return Outcome{
			Status:       entity.RecordDamaged,
			DueDate:      record.DueDate,
			ReturnDate:   &returnedAt,
			Fine:         fine.DamagedFine(settings),
			CopyStatus:   entity.CopyDamaged,
			ClosesLoan:   true,
			Notification: entity.NotificationDamaged,
		}, nil
	}

	return Outcome{}, domainerrors.ErrInvalidRecordState
}
