package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// maxCopiesPerRequest bounds how many copies one request may add.
const maxCopiesPerRequest = 100

// catalogService implements the CatalogUsecase interface.
type catalogService struct {
	txManager    repository.TransactionManager
	labelService service.LabelService
	logger       *slog.Logger
}

// CatalogServiceParams holds dependencies for CatalogService, injected by Fx.
type CatalogServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	LabelService service.LabelService
	Logger       *slog.Logger
}

// NewCatalogService is the constructor for catalogService.
func NewCatalogService(params CatalogServiceParams) usecase.CatalogUsecase {
	return &catalogService{
		txManager:    params.TxManager,
		labelService: params.LabelService,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *catalogService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *catalogService) ListBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	var books []*entity.Book
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		books, err = repoFactory.NewBookRepository().List(ctx, filter)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list books")
	}

	return books, nil
}

func (srv *catalogService) GetBook(ctx context.Context, id int64) (*entity.Book, error) {
	var book *entity.Book
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		book, err = repoFactory.NewBookRepository().FindByID(ctx, id)

		return translateRepoError(err)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get book")
	}

	return book, nil
}

// AddBook creates the book and its initial copies; the counters start from
// the copies actually created.
func (srv *catalogService) AddBook(ctx context.Context, input usecase.AddBookInput) (*entity.Book, error) {
	if input.InitialCopies < 0 || input.InitialCopies > maxCopiesPerRequest {
		return nil, domainerrors.ErrValidationFailed.WithDetails("initialCopies out of range")
	}

	book := bookFromInput(input.BookInput)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		bookRepo := repoFactory.NewBookRepository()

		if err := srv.ensureISBNFree(ctx, bookRepo, book.ISBN, 0); err != nil {
			return err
		}

		if err := bookRepo.Create(ctx, book); err != nil {
			return errors.Wrap(err, "failed to create book")
		}

		if _, err := createCopies(ctx, repoFactory, book.ID, input.InitialCopies, input.ShelfLocation, ""); err != nil {
			return err
		}

		book.TotalCopies = input.InitialCopies
		book.AvailableCopies = input.InitialCopies

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to add book")
	}

	srv.log(ctx).Info("Book added", slog.Int64("bookID", book.ID), slog.Int("copies", input.InitialCopies))

	return book, nil
}

func (srv *catalogService) UpdateBook(ctx context.Context, id int64, input usecase.BookInput) (*entity.Book, error) {
	var book *entity.Book
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		bookRepo := repoFactory.NewBookRepository()

		var err error
		book, err = bookRepo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err)
		}

		updated := bookFromInput(input)
		if err := srv.ensureISBNFree(ctx, bookRepo, updated.ISBN, id); err != nil {
			return err
		}

		updated.ID = id
		updated.TotalCopies = book.TotalCopies
		updated.AvailableCopies = book.AvailableCopies
		updated.CreatedAt = book.CreatedAt
		book = updated

		return translateRepoError(bookRepo.Update(ctx, book))
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update book")
	}

	return book, nil
}

// DeleteBook removes a book and its copies. Books with copies on loan stay;
// closed records keep their title snapshot.
func (srv *catalogService) DeleteBook(ctx context.Context, id int64) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		bookRepo := repoFactory.NewBookRepository()

		if _, err := bookRepo.FindByID(ctx, id); err != nil {
			return translateRepoError(err)
		}

		open, err := repoFactory.NewBorrowRecordRepository().CountOpenByBook(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to count open loans")
		}
		if open > 0 {
			return errors.Wrapf(domainerrors.ErrBookHasBorrowedCopies, "book %d has %d copies on loan", id, open)
		}

		if err := repoFactory.NewCopyRepository().DeleteByBook(ctx, id); err != nil {
			return err
		}

		return translateRepoError(bookRepo.Delete(ctx, id))
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete book")
	}

	srv.log(ctx).Info("Book deleted", slog.Int64("bookID", id))

	return nil
}

func (srv *catalogService) ListCopies(ctx context.Context, bookID int64) ([]*entity.BookCopy, error) {
	var copies []*entity.BookCopy
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.NewBookRepository().FindByID(ctx, bookID); err != nil {
			return translateRepoError(err)
		}

		var err error
		copies, err = repoFactory.NewCopyRepository().ListByBook(ctx, bookID)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list copies")
	}

	return copies, nil
}

func (srv *catalogService) AddCopies(ctx context.Context, input usecase.AddCopiesInput) ([]*entity.BookCopy, error) {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > maxCopiesPerRequest {
		return nil, domainerrors.ErrValidationFailed.WithDetails("quantity out of range")
	}

	var copies []*entity.BookCopy
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.NewBookRepository().FindByID(ctx, input.BookID); err != nil {
			return translateRepoError(err)
		}

		var err error
		copies, err = createCopies(ctx, repoFactory, input.BookID, quantity, input.ShelfLocation, input.Notes)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to add copies")
	}

	srv.log(ctx).Info("Copies added", slog.Int64("bookID", input.BookID), slog.Int("quantity", quantity))

	return copies, nil
}

// UpdateCopy edits shelf details and moves a copy that is not on loan between
// AVAILABLE, LOST and DAMAGED, keeping the book's available count in step.
func (srv *catalogService) UpdateCopy(ctx context.Context, input usecase.UpdateCopyInput) (*entity.BookCopy, error) {
	if input.Status != nil && (*input.Status == entity.CopyBorrowed || !input.Status.IsValid()) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("status must be AVAILABLE, LOST or DAMAGED")
	}

	var bookCopy *entity.BookCopy
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		copyRepo := repoFactory.NewCopyRepository()

		var err error
		bookCopy, err = copyRepo.FindByID(ctx, input.ID)
		if err != nil {
			return translateRepoError(err)
		}

		if input.ShelfLocation != nil || input.Notes != nil {
			if input.ShelfLocation != nil {
				bookCopy.ShelfLocation = *input.ShelfLocation
			}
			if input.Notes != nil {
				bookCopy.Notes = *input.Notes
			}
			if err := copyRepo.UpdateDetails(ctx, bookCopy); err != nil {
				return translateRepoError(err)
			}
		}

		if input.Status == nil || *input.Status == bookCopy.Status {
			return nil
		}
		if bookCopy.Status == entity.CopyBorrowed {
			return errors.Wrapf(domainerrors.ErrCopyInUse, "copy %d is on loan", bookCopy.ID)
		}

		from, to := bookCopy.Status, *input.Status
		if err := copyRepo.TransitionStatus(ctx, bookCopy.ID, from, to); err != nil {
			return translateRepoError(err)
		}

		if delta := availabilityDelta(from, to); delta != 0 {
			if err := repoFactory.NewBookRepository().AdjustCopyCounts(ctx, bookCopy.BookID, 0, delta); err != nil {
				return translateRepoError(err)
			}
		}
		bookCopy.Status = to

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update copy")
	}

	return bookCopy, nil
}

func (srv *catalogService) DeleteCopy(ctx context.Context, id int64) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		copyRepo := repoFactory.NewCopyRepository()

		bookCopy, err := copyRepo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err)
		}
		if bookCopy.Status == entity.CopyBorrowed {
			return errors.Wrapf(domainerrors.ErrCopyInUse, "copy %d is on loan", id)
		}

		if err := copyRepo.Delete(ctx, id); err != nil {
			return translateRepoError(err)
		}

		availableDelta := 0
		if bookCopy.Status == entity.CopyAvailable {
			availableDelta = -1
		}

		return translateRepoError(repoFactory.NewBookRepository().AdjustCopyCounts(ctx, bookCopy.BookID, -1, availableDelta))
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete copy")
	}

	srv.log(ctx).Info("Copy deleted", slog.Int64("copyID", id))

	return nil
}

func (srv *catalogService) CopyLabel(ctx context.Context, id int64) (*usecase.CopyLabel, error) {
	var bookCopy *entity.BookCopy
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		bookCopy, err = repoFactory.NewCopyRepository().FindByID(ctx, id)

		return translateRepoError(err)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get copy")
	}

	png, err := srv.labelService.GenerateCopyLabel(bookCopy.BookID, bookCopy.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render copy label")
	}

	return &usecase.CopyLabel{BookID: bookCopy.BookID, CopyID: bookCopy.ID, PNG: png}, nil
}

func (srv *catalogService) ensureISBNFree(ctx context.Context, bookRepo repository.BookRepository, isbn string, excludeID int64) error {
	if isbn == "" {
		return nil
	}

	exists, err := bookRepo.ExistsByISBN(ctx, isbn, excludeID)
	if err != nil {
		return errors.Wrap(err, "failed to check isbn")
	}
	if exists {
		return errors.Wrapf(domainerrors.ErrISBNAlreadyExists, "isbn %s", isbn)
	}

	return nil
}

// createCopies adds AVAILABLE copies and raises both counters by the number
// created.
func createCopies(ctx context.Context, repoFactory repository.RepositoryFactory, bookID int64, n int, shelf, notes string) ([]*entity.BookCopy, error) {
	if n == 0 {
		return []*entity.BookCopy{}, nil
	}

	copyRepo := repoFactory.NewCopyRepository()
	copies := make([]*entity.BookCopy, 0, n)
	for i := 0; i < n; i++ {
		bookCopy := &entity.BookCopy{
			BookID:        bookID,
			Status:        entity.CopyAvailable,
			ShelfLocation: shelf,
			Notes:         notes,
		}
		if err := copyRepo.Create(ctx, bookCopy); err != nil {
			return nil, errors.Wrap(err, "failed to create copy")
		}
		copies = append(copies, bookCopy)
	}

	if err := repoFactory.NewBookRepository().AdjustCopyCounts(ctx, bookID, n, n); err != nil {
		return nil, translateRepoError(err)
	}

	return copies, nil
}

func availabilityDelta(from, to entity.CopyStatus) int {
	switch {
	case from == entity.CopyAvailable && to != entity.CopyAvailable:
		return -1
	case from != entity.CopyAvailable && to == entity.CopyAvailable:
		return 1
	default:
		return 0
	}
}

func bookFromInput(input usecase.BookInput) *entity.Book {
	return &entity.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		ISBN:        strings.TrimSpace(input.ISBN),
		Category:    strings.TrimSpace(input.Category),
		Year:        input.Year,
		Price:       input.Price,
		PageCount:   input.PageCount,
		Description: input.Description,
	}
}
