// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"circulation/internal/domain/entity"
)

// ErrBookNotFound is returned when a book is not found.
var ErrBookNotFound = errors.New("book not found")

// BookRepository defines the standard operations for catalog persistence.
type BookRepository interface {
	// FindByID retrieves a single book by its ID.
	FindByID(ctx context.Context, id int64) (*entity.Book, error)

	// List returns the books matching the filter ordered by id.
	List(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error)

	// ExistsByISBN reports whether another book (id != excludeID) has the ISBN.
	ExistsByISBN(ctx context.Context, isbn string, excludeID int64) (bool, error)

	// Create persists a new book; copy counters start at zero.
	Create(ctx context.Context, book *entity.Book) error

	// Update modifies the descriptive fields of a book. Copy counters are untouched.
	Update(ctx context.Context, book *entity.Book) error

	// AdjustCopyCounts atomically adds the deltas to totalCopies and availableCopies.
	AdjustCopyCounts(ctx context.Context, id int64, totalDelta, availableDelta int) error

	// Delete removes a book.
	Delete(ctx context.Context, id int64) error
}
