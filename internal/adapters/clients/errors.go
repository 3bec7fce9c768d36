// Package clients provides HTTP client adapters for downstream services.
package clients

import "errors"

// Client errors are infrastructure failures; callers translate them to domain errors.
var (
	// ErrMaxRetriesExceeded is returned after all attempts have been exhausted.
	// The last attempt's error is wrapped for context.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrInvalidConfig is returned by New for an unusable client configuration.
	ErrInvalidConfig = errors.New("invalid client config")
)
