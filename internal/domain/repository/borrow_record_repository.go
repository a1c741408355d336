package repository

import (
	"context"
	"errors"
	"time"

	"circulation/internal/domain/entity"
)

var (
	// ErrRecordNotFound is returned when a borrow record is not found.
	ErrRecordNotFound = errors.New("borrow record not found")
	// ErrRecordNotOpen is returned when a conditional update found the record
	// already in a terminal state.
	ErrRecordNotOpen = errors.New("borrow record is not open")
)

// BorrowRecordRepository defines the operations on borrow records.
type BorrowRecordRepository interface {
	// FindByID retrieves a record by its ID.
	FindByID(ctx context.Context, id int64) (*entity.BorrowRecord, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter entity.RecordFilter) ([]*entity.BorrowRecord, error)

	// Create persists a new record.
	Create(ctx context.Context, record *entity.BorrowRecord) error

	// UpdateOpen writes status, dates, fine and renew count, only if the
	// stored record is still BORROWING. Returns ErrRecordNotOpen otherwise.
	UpdateOpen(ctx context.Context, record *entity.BorrowRecord) error

	// CountOpenByUser counts the user's BORROWING records.
	CountOpenByUser(ctx context.Context, userID int64) (int, error)

	// CountOpenByBook counts BORROWING records of a book.
	CountOpenByBook(ctx context.Context, bookID int64) (int, error)

	// CountByBook returns the lifetime number of records per book.
	CountByBook(ctx context.Context) (map[int64]int, error)

	// ListOpenDueBefore returns BORROWING records whose due date is before t.
	ListOpenDueBefore(ctx context.Context, t time.Time) ([]*entity.BorrowRecord, error)
}
