package repository

import (
	"context"
	"errors"

	"circulation/internal/domain/entity"
)

// ErrNotificationNotFound is returned when a notification is not found.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository defines the interface for member notifications.
type NotificationRepository interface {
	// Create persists a new notification.
	Create(ctx context.Context, notification *entity.Notification) error

	// FindByID retrieves a notification by its ID.
	FindByID(ctx context.Context, id int64) (*entity.Notification, error)

	// ListByUser returns a user's notifications, newest first.
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*entity.Notification, error)

	// MarkRead flags a notification as read.
	MarkRead(ctx context.Context, id int64) error

	// ExistsForRecord reports whether a notification of the type exists for the record.
	ExistsForRecord(ctx context.Context, recordID int64, notificationType entity.NotificationType) (bool, error)
}
