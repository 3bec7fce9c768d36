// Package app contains application services that orchestrate use cases.
// Services depend on ports and on the propagated request context, never on
// HTTP specifics.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/go-context-propagation/internal/app/inject"
	"github.com/jsamuelsen/go-context-propagation/internal/domain"
	"github.com/jsamuelsen/go-context-propagation/internal/ports"
)

// ContextServiceConfig contains the dependencies of ContextService.
type ContextServiceConfig struct {
	// Values reads the propagated values of a request (an *appctx.Store).
	Values inject.Source

	Downstream ports.DownstreamClient

	// ServiceName labels local snapshots.
	ServiceName string

	Logger *slog.Logger
}

// ContextService exposes the propagated request context to callers.
type ContextService struct {
	values     inject.Source
	downstream ports.DownstreamClient
	name       string
	logger     *slog.Logger

	greet inject.Func[*domain.Greeting]
}

// NewContextService creates the service. Panics if Values or Downstream is nil.
func NewContextService(cfg ContextServiceConfig) *ContextService {
	if cfg.Values == nil {
		panic("ContextService: Values is required")
	}

	if cfg.Downstream == nil {
		panic("ContextService: Downstream is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &ContextService{
		values:     cfg.Values,
		downstream: cfg.Downstream,
		name:       cfg.ServiceName,
		logger:     logger,
	}

	// user_id is required; org is optional and arrives as "tenant".
	requireUser := inject.New(cfg.Values, []string{"user_id"}, inject.WithParams("salutation"))
	optionalOrg := inject.New(cfg.Values, []string{"org"},
		inject.WithAliases(map[string]string{"org": "tenant"}),
		inject.WithRaiseOnMissing(false),
	)
	s.greet = inject.Wrap(requireUser, inject.Wrap(optionalOrg, greeting))

	return s
}

// Snapshot returns the values propagated into ctx.
func (s *ContextService) Snapshot(ctx context.Context) domain.Snapshot {
	return domain.NewSnapshot(s.name, s.values.Get(ctx))
}

// Greet greets the user named by the propagated user_id, mentioning the
// propagated org when present. An empty salutation means the default.
func (s *ContextService) Greet(ctx context.Context, salutation string) (*domain.Greeting, error) {
	var args []any
	if salutation != "" {
		args = []any{salutation}
	}

	g, err := s.greet(ctx, args, nil)
	if err != nil {
		var missing *inject.MissingKeyError
		if errors.As(err, &missing) {
			s.logger.WarnContext(ctx, "greeting without identity", slog.String("missing_key", missing.Key))
			return nil, domain.NewValidationError(missing.Key, "missing from request context")
		}

		return nil, fmt.Errorf("greeting: %w", err)
	}

	s.logger.DebugContext(ctx, "greeted user", slog.String("user_id", g.UserID))

	return g, nil
}

func greeting(_ context.Context, args []any, kwargs map[string]any) (*domain.Greeting, error) {
	var salutation string
	if len(args) > 0 {
		salutation = fmt.Sprint(args[0])
	}

	return domain.NewGreeting(asString(kwargs["user_id"]), asString(kwargs["tenant"]), salutation)
}

func asString(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

// Relay calls the downstream service with the current context and returns
// the values it received. The call runs on its own goroutine, which inherits
// ctx; cancellation of ctx abandons the wait.
func (s *ContextService) Relay(ctx context.Context) (*domain.Snapshot, error) {
	fetch := inject.Async(func(ctx context.Context, _ []any, _ map[string]any) (*domain.Snapshot, error) {
		return s.downstream.FetchSnapshot(ctx)
	})

	select {
	case res := <-fetch(ctx, nil, nil):
		if res.Err != nil {
			s.logger.ErrorContext(ctx, "relay failed", slog.Any("error", res.Err))
			return nil, res.Err
		}

		s.logger.InfoContext(ctx, "relayed context",
			slog.String("downstream", res.Value.Service),
			slog.Int("keys", len(res.Value.Values)),
		)

		return res.Value, nil

	case <-ctx.Done():
		return nil, fmt.Errorf("relay: %w", ctx.Err())
	}
}
