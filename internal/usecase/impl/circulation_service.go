package impl

import (
	"context"
	"log/slog"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/circulation"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/fine"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// circulationService implements the CirculationUsecase interface.
type circulationService struct {
	txManager repository.TransactionManager
	calc      *fine.Calculator
	clock     service.Clock
	publisher service.EventPublisher
	logger    *slog.Logger
}

// CirculationServiceParams holds dependencies for CirculationService, injected by Fx.
type CirculationServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Calc      *fine.Calculator
	Clock     service.Clock
	Publisher service.EventPublisher `optional:"true"`
	Logger    *slog.Logger
}

// NewCirculationService is the constructor for circulationService.
func NewCirculationService(params CirculationServiceParams) usecase.CirculationUsecase {
	return &circulationService{
		txManager: params.TxManager,
		calc:      params.Calc,
		clock:     params.Clock,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *circulationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Borrow claims a copy, opens the record and updates every cache in one
// transaction.
func (srv *circulationService) Borrow(ctx context.Context, actor entity.Principal, userID, bookID int64) (*entity.BorrowRecord, error) {
	if err := requireSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}

	now := srv.clock.Now()
	var record *entity.BorrowRecord

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()
		bookRepo := repoFactory.NewBookRepository()
		copyRepo := repoFactory.NewCopyRepository()
		recordRepo := repoFactory.NewBorrowRecordRepository()

		// 1. The acting account must be active at call time
		if actor.UserID != userID {
			if _, err := requireActive(ctx, userRepo, actor.UserID); err != nil {
				return err
			}
		}

		borrower, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			return translateRepoError(err)
		}

		book, err := bookRepo.FindByID(ctx, bookID)
		if err != nil {
			return translateRepoError(err)
		}

		settings, err := loadSettings(ctx, repoFactory.NewSettingsRepository())
		if err != nil {
			return err
		}

		openLoans, err := recordRepo.CountOpenByUser(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to count open loans")
		}

		// 2. Policy decision over the snapshot
		decision, err := circulation.DecideBorrow(circulation.BorrowState{
			Borrower:  borrower,
			Book:      book,
			OpenLoans: openLoans,
			Settings:  settings,
			Now:       now,
		})
		if err != nil {
			return err
		}

		// 3. Conditional claims; either one failing rolls the whole borrow back
		claimed, err := copyRepo.ClaimAvailable(ctx, bookID)
		if err != nil {
			return translateRepoError(err)
		}

		if err := userRepo.OpenLoan(ctx, userID, settings.MaxBorrowBooks); err != nil {
			return translateRepoError(err)
		}

		if err := bookRepo.AdjustCopyCounts(ctx, bookID, 0, -1); err != nil {
			return translateRepoError(err)
		}

		record = &entity.BorrowRecord{
			UserID:     userID,
			BookID:     bookID,
			CopyID:     claimed.ID,
			BookTitle:  book.Title,
			BorrowDate: decision.BorrowDate,
			DueDate:    decision.DueDate,
			Status:     entity.RecordBorrowing,
		}
		if err := recordRepo.Create(ctx, record); err != nil {
			return errors.Wrap(err, "failed to create borrow record")
		}

		return repoFactory.NewNotificationRepository().Create(ctx, recordNotification(record, entity.NotificationBorrowed))
	})
	if err != nil {
		srv.log(ctx).Info("Borrow rejected",
			slog.Int64("userID", userID),
			slog.Int64("bookID", bookID),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to borrow book")
	}

	srv.log(ctx).Info("Book borrowed",
		slog.Int64("recordID", record.ID),
		slog.Int64("userID", userID),
		slog.Int64("copyID", record.CopyID),
	)
	publishEvent(ctx, srv.log(ctx), srv.publisher, circulationEvent(record, entity.NotificationBorrowed, now))

	return record, nil
}

func (srv *circulationService) Return(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error) {
	return srv.transition(ctx, actor, recordID, circulation.ActionReturn)
}

func (srv *circulationService) Renew(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error) {
	return srv.transition(ctx, actor, recordID, circulation.ActionRenew)
}

func (srv *circulationService) MarkLost(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error) {
	return srv.transition(ctx, actor, recordID, circulation.ActionMarkLost)
}

func (srv *circulationService) MarkDamaged(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error) {
	return srv.transition(ctx, actor, recordID, circulation.ActionMarkDamaged)
}

func (srv *circulationService) ForceReturn(ctx context.Context, actor entity.Principal, recordID int64) (*entity.BorrowRecord, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "force return requires staff")
	}

	return srv.transition(ctx, actor, recordID, circulation.ActionForceReturn)
}

// transition applies one decided action to a record, its copy, its book and
// the borrower's caches in one transaction.
func (srv *circulationService) transition(ctx context.Context, actor entity.Principal, recordID int64, action circulation.Action) (*entity.BorrowRecord, error) {
	now := srv.clock.Now()
	var (
		record  *entity.BorrowRecord
		outcome circulation.Outcome
	)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()
		recordRepo := repoFactory.NewBorrowRecordRepository()

		var err error
		record, err = recordRepo.FindByID(ctx, recordID)
		if err != nil {
			return translateRepoError(err)
		}

		if err := requireSelfOrAdmin(actor, record.UserID); err != nil {
			return err
		}

		if action.GuardsAccount() {
			if _, err := requireActive(ctx, userRepo, actor.UserID); err != nil {
				return err
			}
			if record.UserID != actor.UserID && action.GuardsOwner() {
				if _, err := requireActive(ctx, userRepo, record.UserID); err != nil {
					return err
				}
			}
		}

		settings, err := loadSettings(ctx, repoFactory.NewSettingsRepository())
		if err != nil {
			return err
		}

		outcome, err = circulation.Decide(action, *record, settings, srv.calc, now)
		if err != nil {
			return err
		}
		outcome.Apply(record)

		if err := recordRepo.UpdateOpen(ctx, record); err != nil {
			if errors.Is(err, repository.ErrRecordNotOpen) {
				return closedRecordError(action)
			}

			return errors.Wrap(err, "failed to update borrow record")
		}

		if outcome.CopyStatus != "" {
			if err := repoFactory.NewCopyRepository().TransitionStatus(ctx, record.CopyID, entity.CopyBorrowed, outcome.CopyStatus); err != nil {
				return errors.Wrapf(err, "failed to move copy %d to %s", record.CopyID, outcome.CopyStatus)
			}
		}

		if outcome.RestoresAvailability {
			if err := repoFactory.NewBookRepository().AdjustCopyCounts(ctx, record.BookID, 0, 1); err != nil {
				return translateRepoError(err)
			}
		}

		if outcome.ClosesLoan {
			if err := userRepo.CloseLoan(ctx, record.UserID, outcome.Fine); err != nil {
				return translateRepoError(err)
			}
		}

		return repoFactory.NewNotificationRepository().Create(ctx, recordNotification(record, outcome.Notification))
	})
	if err != nil {
		srv.log(ctx).Info("Circulation action rejected",
			slog.String("action", string(action)),
			slog.Int64("recordID", recordID),
			slog.Any("error", err),
		)

		return nil, errors.Wrapf(err, "failed to %s record", action)
	}

	srv.log(ctx).Info("Circulation action applied",
		slog.String("action", string(action)),
		slog.Int64("recordID", record.ID),
		slog.String("status", string(record.Status)),
		slog.Int64("fine", record.Fine),
	)
	publishEvent(ctx, srv.log(ctx), srv.publisher, circulationEvent(record, outcome.Notification, now))

	return record, nil
}

// closedRecordError is the error for a record closed by a concurrent call
// between the read and the conditional update.
func closedRecordError(action circulation.Action) error {
	if action == circulation.ActionReturn || action == circulation.ActionForceReturn {
		return domainerrors.ErrAlreadyReturned
	}

	return domainerrors.ErrInvalidRecordState
}

func (srv *circulationService) ListUserRecords(ctx context.Context, actor entity.Principal, userID int64, status *entity.RecordStatus) ([]*entity.BorrowRecord, error) {
	if err := requireSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}

	return srv.ListRecords(ctx, entity.RecordFilter{UserID: &userID, Status: status})
}

func (srv *circulationService) ListRecords(ctx context.Context, filter entity.RecordFilter) ([]*entity.BorrowRecord, error) {
	if filter.OverdueOnly && filter.Now.IsZero() {
		filter.Now = srv.clock.Now()
	}

	var records []*entity.BorrowRecord
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		records, err = repoFactory.NewBorrowRecordRepository().List(ctx, filter)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list borrow records")
	}

	return records, nil
}
