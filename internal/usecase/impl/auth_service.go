package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"circulation/config"
	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/domain/service"
	"circulation/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	hasher       service.PasswordHasher
	tokenService service.TokenService
	bootstrap    *config.BootstrapConfig
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	var bootstrap *config.BootstrapConfig
	if params.Config != nil {
		bootstrap = params.Config.Bootstrap
	}

	return &authService{
		txManager:    params.TxManager,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		bootstrap:    bootstrap,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies credentials and opens a new session.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.SessionOutput, error) {
	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		user, err = repoFactory.NewUserRepository().FindByUsername(ctx, strings.TrimSpace(input.Username))

		return err
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "unknown username")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login failed", slog.String("username", user.Username))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password mismatch")
	}

	if user.IsLocked() {
		return nil, errors.Wrapf(domainerrors.ErrAccountLocked, "user %d", user.ID)
	}

	output, err := srv.issueSession(user, uuid.New().String())
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in", slog.Int64("userID", user.ID), slog.String("sessionID", output.SessionID))

	return output, nil
}

// Register creates an ACTIVE member account.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
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
		Role:         entity.RoleUser,
		Status:       entity.AccountActive,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewUserRepository().Create(ctx, user)
	})
	if err != nil {
		return nil, errors.Wrap(translateRepoError(err), "failed to register user")
	}

	srv.log(ctx).Info("User registered", slog.Int64("userID", user.ID), slog.String("username", user.Username))

	return user, nil
}

// ResumeSession validates a session token and re-reads the account.
func (srv *authService) ResumeSession(ctx context.Context, sessionToken string) (*usecase.SessionOutput, error) {
	claims, err := srv.tokenService.ValidateToken(sessionToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrSessionTokenInvalid, err.Error())
	}

	user, err := srv.CheckStatus(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return srv.issueSession(user, claims.Subject)
}

// CheckStatus reports FORCE_LOGOUT for locked or deleted accounts.
func (srv *authService) CheckStatus(ctx context.Context, userID int64) (*entity.User, error) {
	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		user, err = repoFactory.NewUserRepository().FindByID(ctx, userID)

		return err
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrapf(domainerrors.ErrForceLogout, "user %d no longer exists", userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	if user.IsLocked() {
		return nil, errors.Wrapf(domainerrors.ErrForceLogout, "user %d is locked", userID)
	}

	return user, nil
}

// EnsureAdmin creates the bootstrap administrator on an empty installation.
func (srv *authService) EnsureAdmin(ctx context.Context) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		admins, err := userRepo.CountByRole(ctx, entity.RoleAdmin)
		if err != nil {
			return errors.Wrap(err, "failed to count administrators")
		}
		if admins > 0 {
			return nil
		}

		if srv.bootstrap == nil || srv.bootstrap.AdminUsername == "" || srv.bootstrap.AdminPassword == "" {
			srv.log(ctx).Warn("No administrator exists and bootstrap credentials are not configured")

			return nil
		}

		hash, err := srv.hasher.Hash(srv.bootstrap.AdminPassword)
		if err != nil {
			return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}

		admin := &entity.User{
			Username:     srv.bootstrap.AdminUsername,
			Email:        srv.bootstrap.AdminEmail,
			PasswordHash: hash,
			FullName:     "Administrator",
			Role:         entity.RoleAdmin,
			Status:       entity.AccountActive,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			return errors.Wrap(translateRepoError(err), "failed to create bootstrap administrator")
		}

		srv.log(ctx).Info("Bootstrap administrator created", slog.String("username", admin.Username))

		return nil
	})
}

func (srv *authService) issueSession(user *entity.User, sessionID string) (*usecase.SessionOutput, error) {
	token, err := srv.tokenService.GenerateSessionToken(user.ID, string(user.Role), sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue session token")
	}

	return &usecase.SessionOutput{
		User:         user,
		SessionID:    sessionID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(srv.tokenService.GetSessionTokenDuration()),
	}, nil
}
