package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager repository.TransactionManager
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager: params.TxManager,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *accountService) ListUsers(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error) {
	var users []*entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		users, err = repoFactory.NewUserRepository().List(ctx, filter)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

func (srv *accountService) GetUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error) {
	if err := requireSelfOrAdmin(actor, id); err != nil {
		return nil, err
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		user, err = repoFactory.NewUserRepository().FindByID(ctx, id)

		return translateRepoError(err)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return user, nil
}

func (srv *accountService) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*entity.User, error) {
	role := input.Role
	if role == "" {
		role = entity.RoleUser
	}
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role " + string(role))
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	user := &entity.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Faculty:      input.Faculty,
		Role:         role,
		Status:       entity.AccountActive,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewUserRepository().Create(ctx, user)
	})
	if err != nil {
		return nil, errors.Wrap(translateRepoError(err), "failed to create user")
	}

	srv.log(ctx).Info("User created", slog.Int64("userID", user.ID), slog.String("role", string(role)))

	return user, nil
}

func (srv *accountService) UpdateUser(ctx context.Context, actor entity.Principal, input usecase.UpdateUserInput) (*entity.User, error) {
	if err := requireSelfOrAdmin(actor, input.ID); err != nil {
		return nil, err
	}
	if input.Role != nil {
		if !actor.IsAdmin() {
			return nil, errors.Wrap(domainerrors.ErrForbidden, "only staff can change roles")
		}
		if !input.Role.IsValid() {
			return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role " + string(*input.Role))
		}
		if actor.UserID == input.ID && *input.Role != entity.RoleAdmin {
			return nil, errors.Wrap(domainerrors.ErrSelfActionForbidden, "cannot demote own account")
		}
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		var err error
		user, err = userRepo.FindByID(ctx, input.ID)
		if err != nil {
			return translateRepoError(err)
		}

		if input.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
		}
		if input.FullName != nil {
			user.FullName = *input.FullName
		}
		if input.Phone != nil {
			user.Phone = *input.Phone
		}
		if input.Faculty != nil {
			user.Faculty = *input.Faculty
		}
		if input.Role != nil {
			user.Role = *input.Role
		}

		return translateRepoError(userRepo.UpdateProfile(ctx, user))
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}

	return user, nil
}

func (srv *accountService) DeleteUser(ctx context.Context, actor entity.Principal, id int64) error {
	if actor.UserID == id {
		return errors.Wrap(domainerrors.ErrSelfActionForbidden, "cannot delete own account")
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		open, err := repoFactory.NewBorrowRecordRepository().CountOpenByUser(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to count open loans")
		}
		if open > 0 {
			return errors.Wrapf(domainerrors.ErrUserHasActiveLoans, "user %d has %d open loans", id, open)
		}

		return translateRepoError(repoFactory.NewUserRepository().Delete(ctx, id))
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}

	srv.log(ctx).Info("User deleted", slog.Int64("userID", id), slog.Int64("actorID", actor.UserID))

	return nil
}

func (srv *accountService) LockUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error) {
	if actor.UserID == id {
		return nil, errors.Wrap(domainerrors.ErrSelfActionForbidden, "cannot lock own account")
	}

	return srv.setStatus(ctx, actor, id, entity.AccountLocked, entity.NotificationAccountLocked)
}

func (srv *accountService) UnlockUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error) {
	return srv.setStatus(ctx, actor, id, entity.AccountActive, entity.NotificationAccountUnlocked)
}

func (srv *accountService) setStatus(
	ctx context.Context,
	actor entity.Principal,
	id int64,
	status entity.AccountStatus,
	notificationType entity.NotificationType,
) (*entity.User, error) {
	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if err := userRepo.UpdateStatus(ctx, id, status); err != nil {
			return translateRepoError(err)
		}

		var err error
		user, err = userRepo.FindByID(ctx, id)
		if err != nil {
			return translateRepoError(err)
		}

		return repoFactory.NewNotificationRepository().Create(ctx, accountNotification(id, notificationType))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to set status %s", status)
	}

	srv.log(ctx).Info("Account status changed",
		slog.Int64("userID", id),
		slog.String("status", string(status)),
		slog.Int64("actorID", actor.UserID),
	)

	return user, nil
}

func (srv *accountService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	hash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return translateRepoError(repoFactory.NewUserRepository().UpdatePassword(ctx, id, hash))
	})
	if err != nil {
		return errors.Wrap(err, "failed to reset password")
	}

	srv.log(ctx).Info("Password reset", slog.Int64("userID", id))

	return nil
}
