package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/clients"
	"github.com/jsamuelsen/go-context-propagation/internal/domain"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
)

const (
	contextPath  = "/api/v1/context"
	livenessPath = "/-/live"
)

// DownstreamClientConfig contains configuration for the downstream client.
type DownstreamClientConfig struct {
	// Client sends the requests. Install propagation hooks on it
	// (clients.InjectHeaders) so the downstream sees the caller's values.
	Client *clients.Client

	// Name identifies the downstream service in errors and health checks.
	Name string

	Logger *slog.Logger
}

// DownstreamClient implements ports.DownstreamClient against another
// instance of this service (or anything serving the same context endpoint).
type DownstreamClient struct {
	client *clients.Client
	name   string
	logger *slog.Logger
}

// NewDownstreamClient creates a downstream client adapter.
// Panics if Client is nil.
func NewDownstreamClient(cfg DownstreamClientConfig) *DownstreamClient {
	if cfg.Client == nil {
		panic("DownstreamClient: Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = "downstream"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DownstreamClient{client: cfg.Client, name: name, logger: logger}
}

// snapshotResponse is the downstream's view of the propagated context.
type snapshotResponse struct {
	Service string         `json:"service"`
	Values  map[string]any `json:"values"`
}

// FetchSnapshot asks the downstream which propagated values it received.
func (c *DownstreamClient) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", contextPath))

	resp, err := c.client.Get(ctx, contextPath)
	if err != nil {
		return nil, MapHTTPError(nil, err, c.name, "fetch snapshot")
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", contextPath),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		mapped := MapHTTPError(resp, nil, c.name, "fetch snapshot")
		c.logger.WarnContext(ctx, "downstream error",
			slog.Int("status_code", resp.StatusCode),
			slog.Any("error", mapped))

		return nil, mapped
	}

	ext, err := decodeResponse[snapshotResponse](resp.Body)
	if err != nil {
		return nil, domain.NewUnavailableError(c.name, "malformed snapshot response", err)
	}

	snap := c.translate(ext)

	return &snap, nil
}

func (c *DownstreamClient) translate(ext *snapshotResponse) domain.Snapshot {
	service := ext.Service
	if service == "" {
		service = c.name
	}

	return domain.NewSnapshot(service, ext.Values)
}

// Name returns the health check name. Implements ports.HealthChecker.
func (c *DownstreamClient) Name() string {
	return c.name
}

// Check probes the downstream liveness endpoint. Implements ports.HealthChecker.
func (c *DownstreamClient) Check(ctx context.Context) error {
	resp, err := c.client.Get(ctx, livenessPath)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}

	return nil
}

func decodeResponse[T any](body io.Reader) (*T, error) {
	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}
