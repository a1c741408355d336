package repository

import (
	"context"
	"errors"

	"circulation/internal/domain/entity"
)

// ErrSettingsNotFound is returned when no settings document has been saved.
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsRepository stores the singleton policy document.
type SettingsRepository interface {
	// Get returns the stored document or ErrSettingsNotFound.
	Get(ctx context.Context) (*entity.Settings, error)

	// Save replaces the document in a single upsert.
	Save(ctx context.Context, settings *entity.Settings) error
}
