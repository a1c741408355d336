package impl

import (
	"context"
	"testing"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/persistence/gormstore"
	"circulation/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	session, err := h.auth.Login(ctx, usecase.LoginInput{Username: " alice ", Password: "secret-alice"})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, session.User.ID)
	assert.NotEmpty(t, session.SessionID)
	assert.NotEmpty(t, session.SessionToken)

	_, err = h.auth.Login(ctx, usecase.LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = h.auth.Login(ctx, usecase.LoginInput{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = h.accounts.LockUser(ctx, h.admin, alice.UserID)
	require.NoError(t, err)
	_, err = h.auth.Login(ctx, usecase.LoginInput{Username: "alice", Password: "secret-alice"})
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.auth.Register(ctx, usecase.RegisterInput{
		Username: "dave",
		Email:    "Dave@Library.test",
		Password: "secret-dave",
		Faculty:  "Law",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, entity.AccountActive, user.Status)
	assert.Equal(t, "dave@library.test", user.Email)

	_, err = h.auth.Register(ctx, usecase.RegisterInput{Username: "dave", Email: "other@library.test", Password: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestResumeSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	session, err := h.auth.Login(ctx, usecase.LoginInput{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	resumed, err := h.auth.ResumeSession(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, resumed.SessionID)
	assert.Equal(t, alice.UserID, resumed.User.ID)

	_, err = h.auth.ResumeSession(ctx, "not-a-token")
	assert.ErrorIs(t, err, domainerrors.ErrSessionTokenInvalid)

	_, err = h.accounts.LockUser(ctx, h.admin, alice.UserID)
	require.NoError(t, err)
	_, err = h.auth.ResumeSession(ctx, session.SessionToken)
	assert.ErrorIs(t, err, domainerrors.ErrForceLogout)
}

func TestCheckStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	user, err := h.auth.CheckStatus(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	require.NoError(t, h.accounts.DeleteUser(ctx, h.admin, alice.UserID))
	_, err = h.auth.CheckStatus(ctx, alice.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrForceLogout)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.auth.EnsureAdmin(ctx))

	role := entity.RoleAdmin
	admins, err := h.accounts.ListUsers(ctx, entity.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Username)
}

func TestEnsureAdmin_WithoutBootstrapCredentials(t *testing.T) {
	db, err := gormstore.OpenInMemory(newDiscardLogger())
	require.NoError(t, err)
	txManager := gormstore.NewTransactionManager(db)

	svc := NewAuthService(AuthServiceParams{TxManager: txManager, Logger: newDiscardLogger()})
	require.NoError(t, svc.EnsureAdmin(context.Background()))

	var admins int
	err = txManager.Execute(context.Background(), func(repoFactory repository.RepositoryFactory) error {
		var err error
		admins, err = repoFactory.NewUserRepository().CountByRole(context.Background(), entity.RoleAdmin)
		return err
	})
	require.NoError(t, err)
	assert.Zero(t, admins)
}
