// Package main is the entry point for the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/clients"
	"github.com/jsamuelsen/go-context-propagation/internal/adapters/clients/acl"
	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http"
	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-context-propagation/internal/app"
	appctx "github.com/jsamuelsen/go-context-propagation/internal/app/context"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/config"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/telemetry"
	"github.com/jsamuelsen/go-context-propagation/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("header_prefix", cfg.Propagation.HeaderPrefix),
	)

	telProvider, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		err = multierr.Append(err, telProvider.Shutdown(ctx))
	}()

	// One store per process; every request and every outbound call reads
	// its own values through it.
	store := appctx.NewStore(cfg.Propagation.StoreName)
	manager := appctx.NewAggregator(store, logging.Contextualizer{})

	healthRegistry := ports.NewHealthRegistry()

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Downstream.BaseURL,
		ServiceName: cfg.Services.Downstream.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}
	clients.InjectHeaders(httpClient, store, cfg.Propagation.HeaderPrefix)

	downstream := acl.NewDownstreamClient(acl.DownstreamClientConfig{
		Client: httpClient,
		Name:   cfg.Services.Downstream.Name,
		Logger: logger,
	})

	if err := healthRegistry.Register(downstream); err != nil {
		return fmt.Errorf("registering downstream health check: %w", err)
	}

	contextService := app.NewContextService(app.ContextServiceConfig{
		Values:      store,
		Downstream:  downstream,
		ServiceName: cfg.App.Name,
		Logger:      logger,
	})

	buildInfo := handlers.NewBuildInfo(cfg.App.Name, Version, Commit, BuildTime)

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		AppConfig:      &cfg.App,
		Store:          store,
		Manager:        manager,
		HeaderPrefix:   cfg.Propagation.HeaderPrefix,
		HealthHandler:  handlers.NewHealthHandler(healthRegistry, buildInfo),
		ContextHandler: handlers.NewContextHandler(contextService),
		Timeout:        cfg.Server.RequestTimeout,
	})

	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until SIGINT/SIGTERM or a server error, then drains
// in-flight requests within shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
