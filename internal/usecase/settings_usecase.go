package usecase

import (
	"context"

	"circulation/internal/domain/entity"
)

// SettingsUsecase reads and replaces the circulation policy.
type SettingsUsecase interface {
	// Get returns the stored policy, or the defaults when none is stored.
	Get(ctx context.Context) (*entity.Settings, error)
	// Update resolves absent fields to defaults, validates the complete
	// document and stores it atomically.
	Update(ctx context.Context, update entity.SettingsUpdate) (*entity.Settings, error)
}
