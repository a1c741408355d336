package usecase

import (
	"context"

	"circulation/internal/domain/entity"
)

// BookInput holds the descriptive fields of a book.
type BookInput struct {
	Title       string
	Author      string
	ISBN        string
	Category    string
	Year        int
	Price       int64
	PageCount   int
	Description string
}

// AddBookInput creates a book together with its first copies.
type AddBookInput struct {
	BookInput
	InitialCopies int
	ShelfLocation string
}

// AddCopiesInput adds physical copies to a book.
type AddCopiesInput struct {
	BookID        int64
	Quantity      int
	ShelfLocation string
	Notes         string
}

// UpdateCopyInput changes a copy; nil leaves a field as is.
type UpdateCopyInput struct {
	ID            int64
	ShelfLocation *string
	Notes         *string
	Status        *entity.CopyStatus
}

// CopyLabel is a rendered shelf label.
type CopyLabel struct {
	BookID int64
	CopyID int64
	PNG    []byte
}

// CatalogUsecase defines book and copy inventory operations.
type CatalogUsecase interface {
	ListBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error)
	GetBook(ctx context.Context, id int64) (*entity.Book, error)
	AddBook(ctx context.Context, input AddBookInput) (*entity.Book, error)
	UpdateBook(ctx context.Context, id int64, input BookInput) (*entity.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	ListCopies(ctx context.Context, bookID int64) ([]*entity.BookCopy, error)
	AddCopies(ctx context.Context, input AddCopiesInput) ([]*entity.BookCopy, error)
	UpdateCopy(ctx context.Context, input UpdateCopyInput) (*entity.BookCopy, error)
	DeleteCopy(ctx context.Context, id int64) error
	CopyLabel(ctx context.Context, id int64) (*CopyLabel, error)
}
