// Package errors defines the sentinel errors shared by every OCCAM domain.
// Domain packages wrap these sentinels with their own context and HTTP
// handlers map them to status codes through httputil.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout means an operation ran past its time budget, such as a
	// workflow step.
	ErrTimeout = errors.New("timeout")

	// ErrIntegrity means stored data no longer matches its hash or checksum.
	ErrIntegrity = errors.New("integrity violation")

	// ErrBlocked means a compliance gate refused the operation.
	ErrBlocked = errors.New("blocked")
)

// New creates a domain error that wraps no sentinel.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps it in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
