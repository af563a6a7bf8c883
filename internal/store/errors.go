package store

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the backing store cannot be reached or
	// a statement fails for reasons other than the caller's input.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrUnknownBackend is returned by Registry.Open for unregistered names.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Unavailable wraps a driver error so that it matches ErrUnavailable while
// keeping the original cause and the failed operation in the chain.
func Unavailable(backend, operation string, err error) error {
	return oops.Code("STORAGE_UNAVAILABLE").
		With("backend", backend).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %s: %w", ErrUnavailable, operation, err))
}

// NotFound wraps ErrNotFound with lookup context.
func NotFound(kind, key string) error {
	return oops.Code("NOT_FOUND").
		With("kind", kind).
		With("key", key).
		Wrap(fmt.Errorf("%s %q: %w", kind, key, ErrNotFound))
}
