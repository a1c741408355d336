package impl

import (
	"context"
	"testing"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestCreateUser_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.member(t, "alice")

	_, err := h.accounts.CreateUser(context.Background(), usecase.CreateUserInput{
		Username: "alice",
		Email:    "other@library.test",
		Password: "secret",
	})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	_, err = h.accounts.CreateUser(context.Background(), usecase.CreateUserInput{
		Username: "carol",
		Email:    "carol@library.test",
		Password: "secret",
		Role:     entity.Role("OWNER"),
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestGetUser_MembersSeeOnlyThemselves(t *testing.T) {
	h := newHarness(t)
	alice := h.member(t, "alice")
	bob := h.member(t, "bob")

	user, err := h.accounts.GetUser(context.Background(), alice, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = h.accounts.GetUser(context.Background(), alice, bob.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = h.accounts.GetUser(context.Background(), h.admin, 404)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	updated, err := h.accounts.UpdateUser(ctx, alice, usecase.UpdateUserInput{
		ID:       alice.UserID,
		FullName: strPtr("Alice Liddell"),
		Email:    strPtr(" ALICE@Example.org "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName)
	assert.Equal(t, "alice@example.org", updated.Email)
	assert.Equal(t, "Science", updated.Faculty)

	admin := entity.RoleAdmin
	_, err = h.accounts.UpdateUser(ctx, alice, usecase.UpdateUserInput{ID: alice.UserID, Role: &admin})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	member := entity.RoleUser
	_, err = h.accounts.UpdateUser(ctx, h.admin, usecase.UpdateUserInput{ID: h.admin.UserID, Role: &member})
	assert.ErrorIs(t, err, domainerrors.ErrSelfActionForbidden)

	promoted, err := h.accounts.UpdateUser(ctx, h.admin, usecase.UpdateUserInput{ID: alice.UserID, Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, promoted.Role)
}

func TestLockUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	_, err := h.accounts.LockUser(ctx, h.admin, h.admin.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrSelfActionForbidden)

	locked, err := h.accounts.LockUser(ctx, h.admin, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, entity.AccountLocked, locked.Status)

	unlocked, err := h.accounts.UnlockUser(ctx, h.admin, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, entity.AccountActive, unlocked.Status)

	notifications, err := h.notifications.List(ctx, alice, alice.UserID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, entity.NotificationAccountUnlocked, notifications[0].Type)
	assert.Equal(t, entity.NotificationAccountLocked, notifications[1].Type)

	_, err = h.accounts.LockUser(ctx, h.admin, 404)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")
	book := h.book(t, "Dune", 1)

	err := h.accounts.DeleteUser(ctx, h.admin, h.admin.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrSelfActionForbidden)

	record, err := h.circulation.Borrow(ctx, alice, alice.UserID, book.ID)
	require.NoError(t, err)

	err = h.accounts.DeleteUser(ctx, h.admin, alice.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrUserHasActiveLoans)

	_, err = h.circulation.Return(ctx, alice, record.ID)
	require.NoError(t, err)
	require.NoError(t, h.accounts.DeleteUser(ctx, h.admin, alice.UserID))

	_, err = h.accounts.GetUser(ctx, h.admin, alice.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.member(t, "alice")

	require.NoError(t, h.accounts.ResetPassword(ctx, alice.UserID, "fresh-password"))

	_, err := h.auth.Login(ctx, usecase.LoginInput{Username: "alice", Password: "secret-alice"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	session, err := h.auth.Login(ctx, usecase.LoginInput{Username: "alice", Password: "fresh-password"})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, session.User.ID)

	err = h.accounts.ResetPassword(ctx, 404, "whatever")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestListUsers_Filters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.member(t, "alice")
	bob := h.member(t, "bob")
	_, err := h.accounts.LockUser(ctx, h.admin, bob.UserID)
	require.NoError(t, err)

	locked := entity.AccountLocked
	users, err := h.accounts.ListUsers(ctx, entity.UserFilter{Status: &locked})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	role := entity.RoleUser
	users, err = h.accounts.ListUsers(ctx, entity.UserFilter{Role: &role, Keyword: "ali"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}
