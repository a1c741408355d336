package gormstore

import (
	"context"
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// borrowRecordRepository implements repository.BorrowRecordRepository using GORM.
type borrowRecordRepository struct {
	db *gorm.DB
}

// NewBorrowRecordRepository is the constructor for borrowRecordRepository.
func NewBorrowRecordRepository(db *gorm.DB) repository.BorrowRecordRepository {
	return &borrowRecordRepository{db: db}
}

func (repo *borrowRecordRepository) FindByID(ctx context.Context, id int64) (*entity.BorrowRecord, error) {
	var recordM model.BorrowRecordModel
	if err := repo.db.WithContext(ctx).First(&recordM, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRecordNotFound
		}

		return nil, errors.Wrap(err, "failed to find borrow record by id")
	}

	return toRecordDomain(&recordM), nil
}

func (repo *borrowRecordRepository) List(ctx context.Context, filter entity.RecordFilter) ([]*entity.BorrowRecord, error) {
	query := repo.db.WithContext(ctx).Model(&model.BorrowRecordModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		query = query.Where("borrow_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("borrow_date < ?", filter.To.UTC())
	}
	if filter.OverdueOnly {
		query = query.Where("status = ? AND due_date < ?", string(entity.RecordBorrowing), filter.Now.UTC())
	}

	var recordMs []*model.BorrowRecordModel
	if err := query.Order("id DESC").Find(&recordMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list borrow records")
	}

	return toRecordDomains(recordMs), nil
}

func (repo *borrowRecordRepository) Create(ctx context.Context, record *entity.BorrowRecord) error {
	recordM := fromRecordDomain(record)
	recordM.ID = 0

	if err := repo.db.WithContext(ctx).Create(recordM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create borrow record")
	}

	record.ID = recordM.ID
	record.CreatedAt = recordM.CreatedAt
	record.UpdatedAt = recordM.UpdatedAt

	return nil
}

func (repo *borrowRecordRepository) UpdateOpen(ctx context.Context, record *entity.BorrowRecord) error {
	result := repo.db.WithContext(ctx).Model(&model.BorrowRecordModel{}).
		Where("id = ? AND status = ?", record.ID, string(entity.RecordBorrowing)).
		Updates(map[string]any{
			"status":      string(record.Status),
			"due_date":    utc(record.DueDate),
			"return_date": utcPtr(record.ReturnDate),
			"fine":        record.Fine,
			"renew_count": record.RenewCount,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update borrow record")
	}
	if result.RowsAffected == 0 {
		return repository.ErrRecordNotOpen
	}

	return nil
}

func (repo *borrowRecordRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.BorrowRecordModel{}).
		Where("user_id = ? AND status = ?", userID, string(entity.RecordBorrowing)).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count open records of user")
	}

	return int(count), nil
}

func (repo *borrowRecordRepository) CountOpenByBook(ctx context.Context, bookID int64) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.BorrowRecordModel{}).
		Where("book_id = ? AND status = ?", bookID, string(entity.RecordBorrowing)).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count open records of book")
	}

	return int(count), nil
}

func (repo *borrowRecordRepository) CountByBook(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		BookID int64
		Count  int
	}
	err := repo.db.WithContext(ctx).Model(&model.BorrowRecordModel{}).
		Select("book_id, COUNT(*) AS count").
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count records by book")
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.BookID] = row.Count
	}

	return counts, nil
}

func (repo *borrowRecordRepository) ListOpenDueBefore(ctx context.Context, t time.Time) ([]*entity.BorrowRecord, error) {
	var recordMs []*model.BorrowRecordModel
	err := repo.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", string(entity.RecordBorrowing), t.UTC()).
		Order("id").
		Find(&recordMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list open records due")
	}

	return toRecordDomains(recordMs), nil
}

func toRecordDomains(recordMs []*model.BorrowRecordModel) []*entity.BorrowRecord {
	records := make([]*entity.BorrowRecord, 0, len(recordMs))
	for _, recordM := range recordMs {
		records = append(records, toRecordDomain(recordM))
	}

	return records
}
