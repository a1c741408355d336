package usecase

import (
	"context"

	"circulation/internal/domain/entity"
)

// OverdueCheckResult summarizes one overdue scan.
type OverdueCheckResult struct {
	Skipped bool // autoCheckOverdue is off
	Scanned int
	DueSoon int
	Overdue int
}

// NotificationUsecase defines member notification operations.
type NotificationUsecase interface {
	List(ctx context.Context, actor entity.Principal, userID int64, unreadOnly bool) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, actor entity.Principal, id int64) (*entity.Notification, error)
	// CheckOverdue writes DUE_SOON and OVERDUE reminders once per record.
	CheckOverdue(ctx context.Context) (*OverdueCheckResult, error)
}
