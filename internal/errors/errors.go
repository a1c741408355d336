// Package errors is the one error import for the service. Sentinels and
// inspection use the standard library; wrapping goes through pkg/errors so
// a logged error carries the stack where it was first annotated.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

// New creates a sentinel without a stack.
func New(text string) error {
	return stderrors.New(text)
}

// Is reports whether target appears anywhere in err's chain.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As stores the first error in err's chain assignable to target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// AsType returns the first error in err's chain of type T.
func AsType[T error](err error) (T, bool) {
	var target T
	ok := stderrors.As(err, &target)

	return target, ok
}

// Errorf creates an error with a stack.
func Errorf(format string, args ...any) error {
	return pkgerrors.Errorf(format, args...)
}

// Wrap annotates err with message and a stack. It returns nil for a nil err.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// WithStack adds a stack to err without changing its message.
func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}
