// Package ports defines interfaces for external dependencies.
// The application layer depends on these contracts; adapters implement them.
//
// Port conventions:
//   - Context as first parameter, carrying the propagated values and deadlines
//   - Return domain types, never transport DTOs
//   - Errors use domain error types (ErrNotFound, ErrUnavailable, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/go-context-propagation/internal/domain"
)

// DownstreamClient is a downstream service that reports the context it received.
//
// Implementations send the propagated values of ctx as headers, so the
// returned snapshot shows what crossed the service boundary.
type DownstreamClient interface {
	// FetchSnapshot asks the downstream service for the values it observed.
	// Returns domain.ErrUnavailable if the service is unreachable.
	FetchSnapshot(ctx context.Context) (*domain.Snapshot, error)
}
