package entity

import (
	"strings"
	"time"
)

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleAdmin indicates library staff.
	RoleAdmin Role = "ADMIN"
	// RoleUser indicates a regular member.
	RoleUser Role = "USER"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a wire value.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))

	return role, role.IsValid()
}

// AccountStatus is the lock state of an account.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountLocked AccountStatus = "LOCKED"
)

// String returns the string representation of the AccountStatus.
func (s AccountStatus) String() string {
	return string(s)
}

// IsValid checks if the AccountStatus is a valid value.
func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountLocked
}

// User is a member or staff account. CurrentBorrowed and TotalFines are
// caches of the user's BorrowRecords and only change together with them.
type User struct {
	ID              int64         `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	PasswordHash    string        `json:"-"`
	FullName        string        `json:"fullName"`
	Phone           string        `json:"phone"`
	Faculty         string        `json:"faculty"`
	Role            Role          `json:"role"`
	Status          AccountStatus `json:"status"`
	TotalBorrowed   int           `json:"totalBorrowed"`   // lifetime
	CurrentBorrowed int           `json:"currentBorrowed"` // count of BORROWING records
	TotalFines      int64         `json:"totalFines"`      // sum of record fines
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsAdmin reports whether the user is staff.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsLocked reports whether the account is locked.
func (u *User) IsLocked() bool {
	return u.Status == AccountLocked
}

// UserFilter narrows user listings.
type UserFilter struct {
	Keyword string // matched against username, email and full name
	Role    *Role
	Status  *AccountStatus
}
