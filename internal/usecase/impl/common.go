// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"

	"github.com/pkg/errors"
)

// translateRepoError maps repository sentinels onto the application error
// catalogue. Unknown errors pass through unchanged.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrBookNotFound):
		return errors.Wrap(domainerrors.ErrBookNotFound, err.Error())
	case errors.Is(err, repository.ErrCopyNotFound):
		return errors.Wrap(domainerrors.ErrCopyNotFound, err.Error())
	case errors.Is(err, repository.ErrNoAvailableCopy):
		return errors.Wrap(domainerrors.ErrNoCopyAvailable, err.Error())
	case errors.Is(err, repository.ErrCopyStatusChanged):
		return errors.Wrap(domainerrors.ErrCopyInUse, err.Error())
	case errors.Is(err, repository.ErrRecordNotFound):
		return errors.Wrap(domainerrors.ErrRecordNotFound, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		return errors.Wrap(domainerrors.ErrUserNotFound, err.Error())
	case errors.Is(err, repository.ErrDuplicateUser):
		return errors.Wrap(domainerrors.ErrUserAlreadyExists, err.Error())
	case errors.Is(err, repository.ErrLoanLimitReached):
		return errors.Wrap(domainerrors.ErrBorrowLimitExceeded, err.Error())
	case errors.Is(err, repository.ErrNotificationNotFound):
		return errors.Wrap(domainerrors.ErrNotificationNotFound, err.Error())
	}

	return err
}

// loadSettings returns the stored policy or the defaults.
func loadSettings(ctx context.Context, repo repository.SettingsRepository) (entity.Settings, error) {
	settings, err := repo.Get(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return entity.DefaultSettings(), nil
	}
	if err != nil {
		return entity.Settings{}, errors.Wrap(err, "failed to load settings")
	}

	return *settings, nil
}

// requireSelfOrAdmin lets members reach only their own data.
func requireSelfOrAdmin(actor entity.Principal, userID int64) error {
	if actor.IsAdmin() || actor.UserID == userID {
		return nil
	}

	return errors.Wrapf(domainerrors.ErrForbidden, "user %d cannot access user %d", actor.UserID, userID)
}

// requireActive re-reads the account and rejects it when locked.
func requireActive(ctx context.Context, userRepo repository.UserRepository, userID int64) (*entity.User, error) {
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if user.IsLocked() {
		return nil, errors.Wrapf(domainerrors.ErrAccountLocked, "user %d", userID)
	}

	return user, nil
}

var notificationTitles = map[entity.NotificationType]string{
	entity.NotificationBorrowed:        "Book borrowed",
	entity.NotificationReturned:        "Book returned",
	entity.NotificationRenewed:         "Loan renewed",
	entity.NotificationLost:            "Book reported lost",
	entity.NotificationDamaged:         "Book reported damaged",
	entity.NotificationDueSoon:         "Book due soon",
	entity.NotificationOverdue:         "Book overdue",
	entity.NotificationAccountLocked:   "Account locked",
	entity.NotificationAccountUnlocked: "Account unlocked",
}

// recordNotification builds the member notification for a record transition.
func recordNotification(record *entity.BorrowRecord, notificationType entity.NotificationType) *entity.Notification {
	recordID := record.ID
	due := record.DueDate.Format(time.DateOnly)

	var message string
	switch notificationType {
	case entity.NotificationBorrowed:
		message = fmt.Sprintf("You borrowed %q. Please return it by %s.", record.BookTitle, due)
	case entity.NotificationReturned:
		message = fmt.Sprintf("%q was returned. Fine: %d.", record.BookTitle, record.Fine)
	case entity.NotificationRenewed:
		message = fmt.Sprintf("%q is now due on %s.", record.BookTitle, due)
	case entity.NotificationLost, entity.NotificationDamaged:
		message = fmt.Sprintf("%q was closed as %s. Fine: %d.", record.BookTitle, record.Status, record.Fine)
	case entity.NotificationDueSoon:
		message = fmt.Sprintf("%q is due on %s.", record.BookTitle, due)
	case entity.NotificationOverdue:
		message = fmt.Sprintf("%q was due on %s. Overdue fines apply until it is returned.", record.BookTitle, due)
	}

	return &entity.Notification{
		UserID:   record.UserID,
		RecordID: &recordID,
		Type:     notificationType,
		Title:    notificationTitles[notificationType],
		Message:  message,
	}
}

// accountNotification builds the notification for a lock or unlock.
func accountNotification(userID int64, notificationType entity.NotificationType) *entity.Notification {
	message := "Your account was unlocked. You can borrow books again."
	if notificationType == entity.NotificationAccountLocked {
		message = "Your account was locked by the library staff. Please contact the front desk."
	}

	return &entity.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   notificationTitles[notificationType],
		Message: message,
	}
}

func circulationEvent(record *entity.BorrowRecord, eventType entity.NotificationType, at time.Time) *entity.CirculationEvent {
	return &entity.CirculationEvent{
		Type:       eventType,
		RecordID:   record.ID,
		UserID:     record.UserID,
		BookID:     record.BookID,
		CopyID:     record.CopyID,
		Fine:       record.Fine,
		OccurredAt: at,
	}
}

// publishEvent is called after commit; a failed publish is logged and does
// not fail the request.
func publishEvent(ctx context.Context, logger *slog.Logger, publisher service.EventPublisher, event *entity.CirculationEvent) {
	if publisher == nil || event == nil {
		return
	}

	if err := publisher.PublishCirculationEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish circulation event",
			slog.String("type", string(event.Type)),
			slog.Int64("recordID", event.RecordID),
			slog.Any("error", err),
		)
	}
}
