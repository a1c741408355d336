package usecase

import (
	"context"

	"circulation/internal/domain/entity"
)

// CreateUserInput defines the data staff provide for a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Faculty  string
	Role     entity.Role
}

// UpdateUserInput carries the profile fields to change; nil leaves a field as is.
type UpdateUserInput struct {
	ID       int64
	Email    *string
	FullName *string
	Phone    *string
	Faculty  *string
	Role     *entity.Role
}

// AccountUsecase defines staff operations on member accounts.
type AccountUsecase interface {
	ListUsers(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error)
	GetUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*entity.User, error)
	UpdateUser(ctx context.Context, actor entity.Principal, input UpdateUserInput) (*entity.User, error)
	DeleteUser(ctx context.Context, actor entity.Principal, id int64) error
	LockUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error)
	UnlockUser(ctx context.Context, actor entity.Principal, id int64) (*entity.User, error)
	ResetPassword(ctx context.Context, id int64, newPassword string) error
}
