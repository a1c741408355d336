package usecase

import (
	"context"
	"time"

	"circulation/internal/domain/entity"
)

// --- Input DTOs ---

// LoginInput defines the data required for a member to log in.
type LoginInput struct {
	Username string
	Password string
}

// RegisterInput defines the data required for self-registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Faculty  string
}

// --- Output DTOs ---

// SessionOutput describes an authenticated session.
type SessionOutput struct {
	User         *entity.User
	SessionID    string
	SessionToken string
	ExpiresAt    time.Time
}

// AuthUsecase defines authentication and account status checks.
type AuthUsecase interface {
	Login(ctx context.Context, input LoginInput) (*SessionOutput, error)
	Register(ctx context.Context, input RegisterInput) (*entity.User, error)
	// ResumeSession re-binds a reconnected client using the token issued at login.
	ResumeSession(ctx context.Context, sessionToken string) (*SessionOutput, error)
	// CheckStatus returns the current account, or FORCE_LOGOUT when it is
	// locked or no longer exists.
	CheckStatus(ctx context.Context, userID int64) (*entity.User, error)
	// EnsureAdmin creates the configured administrator when no ADMIN exists.
	EnsureAdmin(ctx context.Context) error
}
