package usecase

import (
	"context"

	"circulation/internal/domain/entity"
)

// CirculationUsecase defines the lending state machine operations. Every
// mutating call runs in one transaction and re-reads account status.
type CirculationUsecase interface {
	// Borrow lends the lowest-id available copy of bookID to userID.
	Borrow(ctx context.Context, actor entity.Principal, userID, bookID int64) (*entity.BorrowRecord, error)
	Return(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error)
	Renew(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error)
	MarkLost(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error)
	MarkDamaged(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error)
	// ForceReturn is the staff override; it skips the account guard.
	ForceReturn(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error)

	ListUserRecords(ctx context.Context, actor entity.Principal, userID int64, status *entity.RecordStatus) ([]*entity.BorrowRecord, error)
	ListRecords(ctx context.Context, filter entity.RecordFilter) ([]*entity.BorrowRecord, error)
}
