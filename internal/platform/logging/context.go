package logging

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// FromContext extracts the logger from context.
// Returns the default logger if no logger is found or ctx is nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}

	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}

	return defaultLogger
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithTraceID adds a trace ID to the logger in context.
// Returns a new context with the enriched logger.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	logger := FromContext(ctx).With(slog.String("trace_id", traceID))
	return WithContext(ctx, logger)
}

// SetDefault sets the default logger used when no logger is in context.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}

// Contextualizer scopes the context logger: inside a scope every record
// carries the scope's values as attributes. It satisfies the propagation
// Contextualizable interface, so it can be aggregated with a value store.
type Contextualizer struct{}

// Contextualize returns a context whose logger carries values, in key order.
// Leaving the scope needs no work: the parent context still holds the
// previous logger.
func (Contextualizer) Contextualize(ctx context.Context, values map[string]any) (context.Context, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := make([]any, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		attrs = append(attrs, slog.Any(key, values[key]))
	}

	return WithContext(ctx, FromContext(ctx).With(attrs...)), func() {}, nil
}
