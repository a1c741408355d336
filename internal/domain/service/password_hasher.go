// Package service declares the ports the use cases call out through: hashing,
// tokens, time, labels and event publishing.
package service

// PasswordHasher stores and verifies member passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password matches the stored hash.
	Check(password, hash string) bool
}
