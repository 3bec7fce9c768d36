package inject

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrMissingKey is returned when a required key is absent from the context.
var ErrMissingKey = errors.New("missing context key")

// MissingKeyError identifies the missing key and carries the context
// snapshot that was inspected.
type MissingKeyError struct {
	Key     string
	Context map[string]any
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Context))
	return fmt.Sprintf("missing context key %q (present keys: %v)", e.Key, keys)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *MissingKeyError) Unwrap() error {
	return ErrMissingKey
}

// IsMissingKey checks if the error is a missing context key error.
func IsMissingKey(err error) bool {
	return errors.Is(err, ErrMissingKey)
}
