package repository

import (
	"context"
	"errors"

	"circulation/internal/domain/entity"
)

var (
	// ErrCopyNotFound is returned when a copy is not found.
	ErrCopyNotFound = errors.New("copy not found")
	// ErrNoAvailableCopy is returned when no AVAILABLE copy could be claimed.
	ErrNoAvailableCopy = errors.New("no available copy")
	// ErrCopyStatusChanged is returned when a conditional status update found
	// the copy in a different state.
	ErrCopyStatusChanged = errors.New("copy status changed concurrently")
)

// BookCopyCount is the number of copies of one book in one status.
type BookCopyCount struct {
	BookID int64
	Status entity.CopyStatus
	Count  int
}

// CopyRepository defines the operations on physical copies.
type CopyRepository interface {
	// FindByID retrieves a copy by its ID.
	FindByID(ctx context.Context, id int64) (*entity.BookCopy, error)

	// ListByBook returns the copies of a book ordered by id.
	ListByBook(ctx context.Context, bookID int64) ([]*entity.BookCopy, error)

	// Create persists a new copy.
	Create(ctx context.Context, bookCopy *entity.BookCopy) error

	// UpdateDetails modifies shelf location and notes.
	UpdateDetails(ctx context.Context, bookCopy *entity.BookCopy) error

	// ClaimAvailable moves the lowest-id AVAILABLE copy of the book to
	// BORROWED with a conditional update and returns it.
	// Returns ErrNoAvailableCopy when none can be claimed.
	ClaimAvailable(ctx context.Context, bookID int64) (*entity.BookCopy, error)

	// TransitionStatus sets the status to `to` only if it is currently `from`.
	// Returns ErrCopyStatusChanged when no row matched.
	TransitionStatus(ctx context.Context, id int64, from, to entity.CopyStatus) error

	// Delete removes a copy unless it is BORROWED.
	// Returns ErrCopyStatusChanged when the copy is BORROWED.
	Delete(ctx context.Context, id int64) error

	// DeleteByBook removes every copy of a book.
	DeleteByBook(ctx context.Context, bookID int64) error

	// CountByBookAndStatus tallies every copy by book and status.
	CountByBookAndStatus(ctx context.Context) ([]BookCopyCount, error)
}
