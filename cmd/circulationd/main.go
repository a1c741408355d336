package main

import (
	"context"
	"log/slog"
	"os"

	"circulation/config"
	"circulation/internal/delivery"
	"circulation/internal/delivery/ws"
	"circulation/internal/domain/fine"
	"circulation/internal/domain/lifecycle"
	"circulation/internal/errors"
	"circulation/internal/infra/auth"
	"circulation/internal/infra/clock"
	logs "circulation/internal/infra/log"
	"circulation/internal/infra/persistence/gormstore"
	"circulation/internal/infra/pubsub"
	"circulation/internal/infra/qrcode"
	"circulation/internal/jobs"
	"circulation/internal/usecase"
	"circulation/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectJobs(),
		fx.Invoke(
			bootstrapAdmin,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		gormstore.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			gormstore.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			clock.NewSystemClock,
			qrcode.NewLabelService,
			pubsub.NewEventPublisher,
			newFineCalculator,
		),
	)
}

// newFineCalculator counts overdue days in the configured circulation time zone.
func newFineCalculator(cfg *config.Config) (*fine.Calculator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return fine.NewCalculator(loc), nil
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewAccountService,
			impl.NewCatalogService,
			impl.NewCirculationService,
			impl.NewSettingsService,
			impl.NewNotificationService,
			impl.NewReportService,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			ws.NewDispatcher,
			ws.NewConnectionHandler,
			fx.Annotate(
				ws.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func injectJobs() fx.Option {
	return fx.Options(
		fx.Provide(jobs.NewOverdueChecker),
		fx.Invoke(func(*jobs.OverdueChecker) {}),
	)
}

// bootstrapAdmin creates the configured administrator on first start.
func bootstrapAdmin(lc fx.Lifecycle, authUsecase usecase.AuthUsecase, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := authUsecase.EnsureAdmin(ctx); err != nil {
				return errors.Wrap(err, "failed to bootstrap administrator")
			}
			logger.Debug("Administrator bootstrap checked")

			return nil
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
