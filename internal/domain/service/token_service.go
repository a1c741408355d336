package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims for session tokens.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and validating session tokens.
// A session token lets a reconnected client resume its session without
// sending credentials again.
type TokenService interface {
	// GenerateSessionToken signs a token for the user and session.
	GenerateSessionToken(userID int64, role, sessionID string) (string, error)

	// ValidateToken checks the validity of a token string.
	ValidateToken(tokenString string) (*Claims, error)

	// GetSessionTokenDuration returns the configured token lifetime.
	GetSessionTokenDuration() time.Duration
}
