package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/middleware"
	appctx "github.com/jsamuelsen/go-context-propagation/internal/app/context"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/config"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/telemetry"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	AppConfig *config.AppConfig

	// Store holds the propagated values of each request.
	Store *appctx.Store

	// Manager is activated once per request with the inbound header values.
	// Usually an Aggregator over Store and the logging contextualizer.
	Manager appctx.Contextualizable

	// HeaderPrefix selects propagated headers. Empty means X-App-.
	HeaderPrefix string

	HealthHandler  *handlers.HealthHandler
	ContextHandler *handlers.ContextHandler

	// Timeout bounds /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Global middleware, first to last:
//  1. Recovery
//  2. HeaderContext - activates the prefixed request headers on Manager
//  3. Request ID and Correlation ID - resolved and propagated the same way
//  4. OpenTelemetry tracing and metrics
//  5. Logging (skips probes)
//
// Routes:
//   - /-/ probes, build info and metrics
//   - /api/v1/ context endpoints, with the request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	prefix := cfg.HeaderPrefix
	if prefix == "" {
		prefix = middleware.DefaultHeaderPrefix
	}

	engine.Use(
		middleware.Recovery(),
		middleware.HeaderContext(cfg.Manager, prefix),
		middleware.RequestID(cfg.Store, cfg.Manager),
		middleware.CorrelationID(cfg.Store, cfg.Manager),
	)
	engine.Use(telemetry.Middleware(cfg.AppConfig.Name, cfg.Store)...)
	engine.Use(middleware.Logging())

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.ContextHandler != nil {
		cfg.ContextHandler.RegisterRoutes(apiV1)
	}
}
