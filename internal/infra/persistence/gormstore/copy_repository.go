package gormstore

import (
	"context"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// claimCandidates bounds how many AVAILABLE copies one claim attempt walks
// before giving up when every candidate was taken concurrently.
const claimCandidates = 16

// copyRepository implements repository.CopyRepository using GORM.
type copyRepository struct {
	db *gorm.DB
}

// NewCopyRepository is the constructor for copyRepository.
func NewCopyRepository(db *gorm.DB) repository.CopyRepository {
	return &copyRepository{db: db}
}

func (repo *copyRepository) FindByID(ctx context.Context, id int64) (*entity.BookCopy, error) {
	var copyM model.BookCopyModel
	if err := repo.db.WithContext(ctx).First(&copyM, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCopyNotFound
		}

		return nil, errors.Wrap(err, "failed to find copy by id")
	}

	return toCopyDomain(&copyM), nil
}

func (repo *copyRepository) ListByBook(ctx context.Context, bookID int64) ([]*entity.BookCopy, error) {
	var copyMs []*model.BookCopyModel
	if err := repo.db.WithContext(ctx).Where("book_id = ?", bookID).Order("id").Find(&copyMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list copies")
	}

	copies := make([]*entity.BookCopy, 0, len(copyMs))
	for _, copyM := range copyMs {
		copies = append(copies, toCopyDomain(copyM))
	}

	return copies, nil
}

func (repo *copyRepository) Create(ctx context.Context, bookCopy *entity.BookCopy) error {
	copyM := fromCopyDomain(bookCopy)
	copyM.ID = 0

	if err := repo.db.WithContext(ctx).Create(copyM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create copy")
	}

	bookCopy.ID = copyM.ID
	bookCopy.CreatedAt = copyM.CreatedAt
	bookCopy.UpdatedAt = copyM.UpdatedAt

	return nil
}

func (repo *copyRepository) UpdateDetails(ctx context.Context, bookCopy *entity.BookCopy) error {
	result := repo.db.WithContext(ctx).Model(&model.BookCopyModel{}).
		Where("id = ?", bookCopy.ID).
		Updates(map[string]any{
			"shelf_location": bookCopy.ShelfLocation,
			"notes":          bookCopy.Notes,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update copy")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCopyNotFound
	}

	return nil
}

// ClaimAvailable walks AVAILABLE copies in id order and claims the first one
// whose conditional update affects exactly one row.
func (repo *copyRepository) ClaimAvailable(ctx context.Context, bookID int64) (*entity.BookCopy, error) {
	var candidates []*model.BookCopyModel
	err := repo.db.WithContext(ctx).
		Where("book_id = ? AND status = ?", bookID, string(entity.CopyAvailable)).
		Order("id").
		Limit(claimCandidates).
		Find(&candidates).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find available copies")
	}

	for _, candidate := range candidates {
		result := repo.db.WithContext(ctx).Model(&model.BookCopyModel{}).
			Where("id = ? AND status = ?", candidate.ID, string(entity.CopyAvailable)).
			Update("status", string(entity.CopyBorrowed))
		if result.Error != nil {
			return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to claim copy")
		}
		if result.RowsAffected == 1 {
			candidate.Status = string(entity.CopyBorrowed)

			return toCopyDomain(candidate), nil
		}
	}

	return nil, repository.ErrNoAvailableCopy
}

func (repo *copyRepository) TransitionStatus(ctx context.Context, id int64, from, to entity.CopyStatus) error {
	result := repo.db.WithContext(ctx).Model(&model.BookCopyModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update copy status")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	return repo.missOrConflict(ctx, id)
}

func (repo *copyRepository) Delete(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, string(entity.CopyBorrowed)).
		Delete(&model.BookCopyModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete copy")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	return repo.missOrConflict(ctx, id)
}

func (repo *copyRepository) DeleteByBook(ctx context.Context, bookID int64) error {
	if err := repo.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.BookCopyModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete copies of book")
	}

	return nil
}

func (repo *copyRepository) CountByBookAndStatus(ctx context.Context) ([]repository.BookCopyCount, error) {
	var rows []struct {
		BookID int64
		Status string
		Count  int
	}
	err := repo.db.WithContext(ctx).Model(&model.BookCopyModel{}).
		Select("book_id, status, COUNT(*) AS count").
		Group("book_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count copies")
	}

	counts := make([]repository.BookCopyCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, repository.BookCopyCount{
			BookID: row.BookID,
			Status: entity.CopyStatus(row.Status),
			Count:  row.Count,
		})
	}

	return counts, nil
}

// missOrConflict tells a missing copy apart from one in an unexpected state
// after a conditional statement matched no row.
func (repo *copyRepository) missOrConflict(ctx context.Context, id int64) error {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.BookCopyModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to check copy")
	}
	if count == 0 {
		return repository.ErrCopyNotFound
	}

	return repository.ErrCopyStatusChanged
}
