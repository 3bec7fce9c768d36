package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully valid configuration for testing.
func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "test-service", Version: "1.0.0", Environment: "test"},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  DefaultMaxRequestSize,
		},
		Log:         LogConfig{Level: "info", Format: "json"},
		Propagation: PropagationConfig{HeaderPrefix: DefaultHeaderPrefix, StoreName: DefaultStoreName},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Services: ServicesConfig{
			Downstream: ServiceEndpointConfig{BaseURL: "http://localhost:8081", Name: "downstream"},
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		contains []string
	}{
		{
			name:     "missing app name",
			mutate:   func(c *Config) { c.App.Name = "" },
			contains: []string{"app.name", "is required"},
		},
		{
			name:     "unknown environment",
			mutate:   func(c *Config) { c.App.Environment = "staging" },
			contains: []string{"app.environment", "must be one of"},
		},
		{
			name:     "port out of range",
			mutate:   func(c *Config) { c.Server.Port = 70000 },
			contains: []string{"server.port", "at most 65535"},
		},
		{
			name:     "missing header prefix",
			mutate:   func(c *Config) { c.Propagation.HeaderPrefix = "" },
			contains: []string{"propagation.headerprefix", "is required"},
		},
		{
			name:     "non ascii header prefix",
			mutate:   func(c *Config) { c.Propagation.HeaderPrefix = "X-Äpp-" },
			contains: []string{"propagation.headerprefix", "printable ASCII"},
		},
		{
			name:     "invalid downstream url",
			mutate:   func(c *Config) { c.Services.Downstream.BaseURL = "not a url" },
			contains: []string{"services.downstream.baseurl", "valid URL"},
		},
		{
			name:     "log file path required when enabled",
			mutate:   func(c *Config) { c.Log.File.Enabled = true },
			contains: []string{"log.file.path", "is required when"},
		},
		{
			name:     "retry multiplier too small",
			mutate:   func(c *Config) { c.Client.Retry.Multiplier = 1.0 },
			contains: []string{"client.retry.multiplier", "at least 1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Propagation.StoreName = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "propagation.storename")
}

func TestFormatFieldPath(t *testing.T) {
	assert.Equal(t, "server.port", formatFieldPath("Config.Server.Port"))
	assert.Equal(t, "name", formatFieldPath("Name"))
}
