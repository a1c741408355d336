package main

import (
	"os"
	"path/filepath"
	"strings"

	"circulation/internal/errors"
)

// ErrNotLoggedIn is returned when no session token has been saved.
var ErrNotLoggedIn = errors.New("not logged in, run login first")

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	return errors.Wrap(os.WriteFile(path, []byte(token+"\n"), 0o600), "failed to save session")
}

func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read session")
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}

	return token, nil
}

func removeToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "failed to remove session")
	}

	return nil
}
