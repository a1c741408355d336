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

// notificationRepository implements repository.NotificationRepository using GORM.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	notificationM := fromNotificationDomain(notification)
	notificationM.ID = 0

	if err := repo.db.WithContext(ctx).Create(notificationM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create notification")
	}

	notification.ID = notificationM.ID
	notification.CreatedAt = notificationM.CreatedAt

	return nil
}

func (repo *notificationRepository) FindByID(ctx context.Context, id int64) (*entity.Notification, error) {
	var notificationM model.NotificationModel
	if err := repo.db.WithContext(ctx).First(&notificationM, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotificationNotFound
		}

		return nil, errors.Wrap(err, "failed to find notification by id")
	}

	return toNotificationDomain(&notificationM), nil
}

func (repo *notificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*entity.Notification, error) {
	query := repo.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notificationMs []*model.NotificationModel
	if err := query.Order("id DESC").Find(&notificationMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	notifications := make([]*entity.Notification, 0, len(notificationMs))
	for _, notificationM := range notificationMs {
		notifications = append(notifications, toNotificationDomain(notificationM))
	}

	return notifications, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).Model(&model.NotificationModel{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark notification read")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotificationNotFound
	}

	return nil
}

func (repo *notificationRepository) ExistsForRecord(ctx context.Context, recordID int64, notificationType entity.NotificationType) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.NotificationModel{}).
		Where("record_id = ? AND type = ?", recordID, string(notificationType)).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check notification")
	}

	return count > 0, nil
}
