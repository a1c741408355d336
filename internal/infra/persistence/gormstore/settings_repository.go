package gormstore

import (
	"context"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsRepository implements repository.SettingsRepository using GORM.
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository is the constructor for settingsRepository.
func NewSettingsRepository(db *gorm.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) Get(ctx context.Context) (*entity.Settings, error) {
	var settingsM model.SettingsModel
	if err := repo.db.WithContext(ctx).First(&settingsM, model.SettingsSingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSettingsNotFound
		}

		return nil, errors.Wrap(err, "failed to load settings")
	}

	return toSettingsDomain(&settingsM), nil
}

// Save writes every field in one statement so readers never observe a
// partially applied document.
func (repo *settingsRepository) Save(ctx context.Context, settings *entity.Settings) error {
	settingsM := fromSettingsDomain(settings)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(settingsM).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to save settings")
	}

	return nil
}
