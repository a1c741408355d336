package impl

import (
	"context"
	"log/slog"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// notificationService implements the NotificationUsecase interface.
type notificationService struct {
	txManager repository.TransactionManager
	clock     service.Clock
	publisher service.EventPublisher
	logger    *slog.Logger
}

// NotificationServiceParams holds dependencies for NotificationService, injected by Fx.
type NotificationServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Clock     service.Clock
	Publisher service.EventPublisher `optional:"true"`
	Logger    *slog.Logger
}

// NewNotificationService is the constructor for notificationService.
func NewNotificationService(params NotificationServiceParams) usecase.NotificationUsecase {
	return &notificationService{
		txManager: params.TxManager,
		clock:     params.Clock,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *notificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *notificationService) List(ctx context.Context, actor entity.Principal, userID int64, unreadOnly bool) ([]*entity.Notification, error) {
	if err := requireSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}

	var notifications []*entity.Notification
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		notifications, err = repoFactory.NewNotificationRepository().ListByUser(ctx, userID, unreadOnly)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

func (srv *notificationService) MarkRead(ctx context.Context, actor entity.Principal, id int64) (*entity.Notification, error) {
	var notification *entity.Notification
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		notificationRepo := repoFactory.NewNotificationRepository()

		var err error
		notification, err = notificationRepo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err)
		}

		if err := requireSelfOrAdmin(actor, notification.UserID); err != nil {
			return err
		}

		if err := notificationRepo.MarkRead(ctx, id); err != nil {
			return translateRepoError(err)
		}
		notification.Read = true

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark notification read")
	}

	return notification, nil
}

// CheckOverdue scans open records due within the reminder window. A record
// gets at most one DUE_SOON and one OVERDUE notification.
func (srv *notificationService) CheckOverdue(ctx context.Context) (*usecase.OverdueCheckResult, error) {
	now := srv.clock.Now()
	result := &usecase.OverdueCheckResult{}
	var events []*entity.CirculationEvent

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		settings, err := loadSettings(ctx, repoFactory.NewSettingsRepository())
		if err != nil {
			return err
		}
		if !settings.AutoCheckOverdue {
			result.Skipped = true

			return nil
		}

		horizon := now.AddDate(0, 0, settings.ReminderDaysBefore)
		records, err := repoFactory.NewBorrowRecordRepository().ListOpenDueBefore(ctx, horizon)
		if err != nil {
			return errors.Wrap(err, "failed to list records due")
		}

		notificationRepo := repoFactory.NewNotificationRepository()
		for _, record := range records {
			result.Scanned++

			notificationType := entity.NotificationDueSoon
			if record.IsOverdue(now) {
				notificationType = entity.NotificationOverdue
			}

			exists, err := notificationRepo.ExistsForRecord(ctx, record.ID, notificationType)
			if err != nil {
				return errors.Wrap(err, "failed to check reminder")
			}
			if exists {
				continue
			}

			if err := notificationRepo.Create(ctx, recordNotification(record, notificationType)); err != nil {
				return err
			}

			if notificationType == entity.NotificationOverdue {
				result.Overdue++
			} else {
				result.DueSoon++
			}
			events = append(events, circulationEvent(record, notificationType, now))
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to check overdue records")
	}

	for _, event := range events {
		publishEvent(ctx, srv.log(ctx), srv.publisher, event)
	}

	return result, nil
}
