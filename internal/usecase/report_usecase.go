package usecase

import (
	"context"
	"time"

	"circulation/internal/domain/entity"
)

// ReportUsecase defines read-only aggregate views. Each report is computed
// from one consistent snapshot.
type ReportUsecase interface {
	Dashboard(ctx context.Context) (*entity.DashboardStats, error)
	BookReport(ctx context.Context) (*entity.BookReport, error)
	UserReport(ctx context.Context) (*entity.UserReport, error)
	BorrowReport(ctx context.Context, from, to *time.Time) (*entity.BorrowReport, error)
	PenaltyReport(ctx context.Context) (*entity.PenaltyReport, error)
}
