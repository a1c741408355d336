package gormstore

import (
	"context"
	"strings"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// bookRepository implements repository.BookRepository using GORM.
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository is the constructor for bookRepository.
func NewBookRepository(db *gorm.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

func (repo *bookRepository) FindByID(ctx context.Context, id int64) (*entity.Book, error) {
	var bookM model.BookModel
	if err := repo.db.WithContext(ctx).First(&bookM, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBookNotFound
		}

		return nil, errors.Wrap(err, "failed to find book by id")
	}

	return toBookDomain(&bookM), nil
}

func (repo *bookRepository) List(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	query := repo.db.WithContext(ctx).Model(&model.BookModel{})

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := likePattern(keyword)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", like, like, like)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if author := strings.TrimSpace(filter.Author); author != "" {
		query = query.Where("LOWER(author) LIKE ?", likePattern(author))
	}
	if filter.AvailableOnly {
		query = query.Where("available_copies > 0")
	}

	var bookMs []*model.BookModel
	if err := query.Order("id").Find(&bookMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list books")
	}

	books := make([]*entity.Book, 0, len(bookMs))
	for _, bookM := range bookMs {
		books = append(books, toBookDomain(bookM))
	}

	return books, nil
}

func (repo *bookRepository) ExistsByISBN(ctx context.Context, isbn string, excludeID int64) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.BookModel{}).
		Where("isbn = ? AND id <> ?", isbn, excludeID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check isbn")
	}

	return count > 0, nil
}

func (repo *bookRepository) Create(ctx context.Context, book *entity.Book) error {
	bookM := fromBookDomain(book)
	bookM.ID = 0
	bookM.TotalCopies = 0
	bookM.AvailableCopies = 0

	if err := repo.db.WithContext(ctx).Create(bookM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create book")
	}

	book.ID = bookM.ID
	book.TotalCopies = 0
	book.AvailableCopies = 0
	book.CreatedAt = bookM.CreatedAt
	book.UpdatedAt = bookM.UpdatedAt

	return nil
}

func (repo *bookRepository) Update(ctx context.Context, book *entity.Book) error {
	result := repo.db.WithContext(ctx).Model(&model.BookModel{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"title":       book.Title,
			"author":      book.Author,
			"isbn":        book.ISBN,
			"category":    book.Category,
			"year":        book.Year,
			"price":       book.Price,
			"page_count":  book.PageCount,
			"description": book.Description,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update book")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBookNotFound
	}

	return nil
}

func (repo *bookRepository) AdjustCopyCounts(ctx context.Context, id int64, totalDelta, availableDelta int) error {
	result := repo.db.WithContext(ctx).Model(&model.BookModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_copies":     gorm.Expr("total_copies + ?", totalDelta),
			"available_copies": gorm.Expr("available_copies + ?", availableDelta),
		})
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return errors.Wrapf(result.Error, "copy counters of book %d would leave their bounds", id)
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to adjust copy counts")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBookNotFound
	}

	return nil
}

func (repo *bookRepository) Delete(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).Delete(&model.BookModel{}, id)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete book")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBookNotFound
	}

	return nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
