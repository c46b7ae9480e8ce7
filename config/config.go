// Package config loads service configuration from the environment.
//
// A .env file in the working directory is read first (if present) with
// github.com/joho/godotenv; values already set in the process environment win.
// The environment is then parsed into Config with github.com/caarlos0/env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `env:"SERVICE_NAME"    envDefault:"bookreview-service"`
	Version string `env:"SERVICE_VERSION" envDefault:"dev"`
	Env     string `env:"ENV"             envDefault:"development"`
	Port    string `env:"PORT"            envDefault:"5000"`
}

// LoggingConfig controls the global zerolog logger.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled    bool    `env:"TRACING_ENABLED"             envDefault:"false"`
	Endpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate float64 `env:"OTEL_SAMPLE_RATE"            envDefault:"1.0"`
}

// ProfilingConfig controls continuous profiling with Pyroscope.
type ProfilingConfig struct {
	Enabled  bool   `env:"PROFILING_ENABLED"  envDefault:"false"`
	Endpoint string `env:"PYROSCOPE_ENDPOINT" envDefault:"http://localhost:4040"`
}

// AuthConfig holds token and session settings.
type AuthConfig struct {
	// AccessTokenSecret signs and verifies access tokens (HS256).
	AccessTokenSecret string `env:"ACCESS_TOKEN_SECRET" envDefault:"access"`
	AccessTokenTTL    string `env:"ACCESS_TOKEN_TTL"    envDefault:"1h"`

	SessionCookieName    string `env:"SESSION_COOKIE_NAME"    envDefault:"session_id"`
	SessionTTL           string `env:"SESSION_TTL"            envDefault:"24h"`
	SessionSweepInterval string `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
}

// RelayConfig controls the loopback self-calls behind the /axios and /books routes.
type RelayConfig struct {
	// BaseURL defaults to http://127.0.0.1:<PORT> when empty.
	BaseURL string `env:"SELF_BASE_URL"`
	Timeout string `env:"SELF_CALL_TIMEOUT" envDefault:"5s"`
}

// CatalogConfig points at an optional JSON seed file replacing the embedded catalog.
type CatalogConfig struct {
	Path string `env:"CATALOG_PATH"`
}

// ShutdownConfig controls graceful shutdown.
type ShutdownConfig struct {
	Timeout             string `env:"SHUTDOWN_TIMEOUT"      envDefault:"10s"`
	ReadinessDrainDelay string `env:"READINESS_DRAIN_DELAY" envDefault:"0s"`
}

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Auth      AuthConfig
	Relay     RelayConfig
	Catalog   CatalogConfig
	Shutdown  ShutdownConfig
}

// Load reads .env (optional) and the process environment.
// Parse failures are logged and the defaults are kept.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg, err := Parse()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse environment, using defaults")
		if cfg, err = Defaults(); err != nil {
			log.Error().Err(err).Msg("Failed to apply default configuration")
		}
	}
	return cfg
}

// Defaults returns a Config holding only the envDefault values. The Config is
// never nil, even when err is not.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return cfg, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Parse parses the current process environment into a Config.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks required values and duration formats.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Auth.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate))
	}

	durations := map[string]string{
		"ACCESS_TOKEN_TTL":       c.Auth.AccessTokenTTL,
		"SESSION_TTL":            c.Auth.SessionTTL,
		"SESSION_SWEEP_INTERVAL": c.Auth.SessionSweepInterval,
		"SELF_CALL_TIMEOUT":      c.Relay.Timeout,
		"SHUTDOWN_TIMEOUT":       c.Shutdown.Timeout,
		"READINESS_DRAIN_DELAY":  c.Shutdown.ReadinessDrainDelay,
	}
	for name, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	return errors.Join(errs...)
}

// GetShutdownTimeoutDuration returns SHUTDOWN_TIMEOUT, or 10s if unparseable.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Shutdown.Timeout, 10*time.Second)
}

// GetReadinessDrainDelayDuration returns READINESS_DRAIN_DELAY, or 0 if unparseable.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Shutdown.ReadinessDrainDelay, 0)
}

// GetAccessTokenTTLDuration returns ACCESS_TOKEN_TTL, or 1h if unparseable.
func (c *Config) GetAccessTokenTTLDuration() time.Duration {
	return parseDuration(c.Auth.AccessTokenTTL, time.Hour)
}

// GetSessionTTLDuration returns SESSION_TTL, or 24h if unparseable.
func (c *Config) GetSessionTTLDuration() time.Duration {
	return parseDuration(c.Auth.SessionTTL, 24*time.Hour)
}

// GetSessionSweepIntervalDuration returns SESSION_SWEEP_INTERVAL, or 1m if unparseable.
func (c *Config) GetSessionSweepIntervalDuration() time.Duration {
	return parseDuration(c.Auth.SessionSweepInterval, time.Minute)
}

// GetSelfCallTimeoutDuration returns SELF_CALL_TIMEOUT, or 5s if unparseable.
func (c *Config) GetSelfCallTimeoutDuration() time.Duration {
	return parseDuration(c.Relay.Timeout, 5*time.Second)
}

// GetRelayBaseURL returns the address self-calls are sent to.
func (c *Config) GetRelayBaseURL() string {
	if c.Relay.BaseURL != "" {
		return strings.TrimRight(c.Relay.BaseURL, "/")
	}
	return "http://127.0.0.1:" + c.Service.Port
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
