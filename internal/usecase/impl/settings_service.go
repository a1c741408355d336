package impl

import (
	"context"
	"log/slog"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/usecase"
	"circulation/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// settingsService implements the SettingsUsecase interface.
type settingsService struct {
	txManager repository.TransactionManager
	validate  *validator.Validate
	logger    *slog.Logger
}

// SettingsServiceParams holds dependencies for SettingsService, injected by Fx.
type SettingsServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Logger    *slog.Logger
}

// NewSettingsService is the constructor for settingsService.
func NewSettingsService(params SettingsServiceParams) usecase.SettingsUsecase {
	return &settingsService{
		txManager: params.TxManager,
		validate:  util.NewValidator(),
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *settingsService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *settingsService) Get(ctx context.Context) (*entity.Settings, error) {
	var settings entity.Settings
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		settings, err = loadSettings(ctx, repoFactory.NewSettingsRepository())

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get settings")
	}

	return &settings, nil
}

// Update validates the resolved document before touching storage, so a
// rejected update leaves the previous document in place.
func (srv *settingsService) Update(ctx context.Context, update entity.SettingsUpdate) (*entity.Settings, error) {
	settings := update.Resolve()

	if err := srv.validate.Struct(settings); err != nil {
		return nil, domainerrors.ErrInvalidSettings.WithDetails(util.DescribeValidationError(err))
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewSettingsRepository().Save(ctx, &settings)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save settings")
	}

	srv.log(ctx).Info("Settings updated",
		slog.Int("maxBorrowDays", settings.MaxBorrowDays),
		slog.Int("maxBorrowBooks", settings.MaxBorrowBooks),
		slog.Int("renewalDays", settings.RenewalDays),
		slog.Int64("overdueFinePerDay", settings.OverdueFinePerDay),
	)

	return &settings, nil
}
