package repository

import (
	"context"
	"errors"

	"circulation/internal/domain/entity"
)

var (
	// ErrUserNotFound is a domain-specific error returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when username or email is taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrLoanLimitReached is returned when the conditional loan increment
	// found the user at the limit.
	ErrLoanLimitReached = errors.New("loan limit reached")
)

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	// FindByUsername retrieves a single user by username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// List returns users matching the filter ordered by id.
	List(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error)

	// CountByRole counts users with the given role.
	CountByRole(ctx context.Context, role entity.Role) (int, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// UpdateProfile modifies email, full name, phone, faculty and role.
	UpdateProfile(ctx context.Context, user *entity.User) error

	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// UpdateStatus sets the account status.
	UpdateStatus(ctx context.Context, id int64, status entity.AccountStatus) error

	// OpenLoan increments currentBorrowed and totalBorrowed if currentBorrowed
	// is below limit. Returns ErrLoanLimitReached otherwise.
	OpenLoan(ctx context.Context, id int64, limit int) error

	// CloseLoan decrements currentBorrowed and adds fine to totalFines.
	CloseLoan(ctx context.Context, id int64, fine int64) error

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}
