// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and MATCHDAY_ env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SnapshotPath is the file the match state is mirrored to. Empty keeps state in memory only.
	SnapshotPath string `koanf:"snapshot_path"`

	// SnapshotQueueSize bounds the pending snapshot writes.
	SnapshotQueueSize int `koanf:"snapshot_queue_size"`

	// AdminPassword is the shared admin secret. Ignored when AdminPasswordHash is set.
	AdminPassword string `koanf:"admin_password"`

	// AdminPasswordHash is a bcrypt hash of the admin secret.
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// SessionSecret signs admin session tokens.
	SessionSecret string `koanf:"session_secret"`

	// SessionTTLMinutes is the admin session lifetime.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// TickIntervalMS is the match clock resolution; one tick adds one second.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// HalfLengthMinutes splits "First Half" from "Second Half".
	HalfLengthMinutes int `koanf:"half_length_minutes"`

	// IdempotencyCacheSize bounds remembered Idempotency-Key values.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// LivePingIntervalSeconds is the spectator WebSocket keepalive period.
	LivePingIntervalSeconds int `koanf:"live_ping_interval_seconds"`

	// LiveSendBuffer is the per-spectator outbound buffer.
	LiveSendBuffer int `koanf:"live_send_buffer"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshSeconds is how often polled gauges are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		SnapshotPath:            "matchday-state.json",
		SnapshotQueueSize:       64,
		AdminPassword:           "admin",
		SessionSecret:           "change-me",
		SessionTTLMinutes:       720,
		TickIntervalMS:          1000,
		HalfLengthMinutes:       45,
		IdempotencyCacheSize:    1024,
		CORSAllowedOrigins:      []string{"*"},
		LivePingIntervalSeconds: 30,
		LiveSendBuffer:          16,
		MetricsEnabled:          true,
		MetricsRefreshSeconds:   5,
	}
}

// TickInterval returns the clock tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// SessionTTL returns the admin session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// LivePingInterval returns the WebSocket ping period.
func (c *Config) LivePingInterval() time.Duration {
	return time.Duration(c.LivePingIntervalSeconds) * time.Second
}

// MetricsRefreshInterval returns the gauge refresh period.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AdminPassword == "" && c.AdminPasswordHash == "":
		return fmt.Errorf("%w: admin_password or admin_password_hash is required", ErrInvalidConfig)
	case c.SessionSecret == "":
		return fmt.Errorf("%w: session_secret must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.HalfLengthMinutes <= 0:
		return fmt.Errorf("%w: half_length_minutes must be positive", ErrInvalidConfig)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	case c.MetricsRefreshSeconds <= 0:
		return fmt.Errorf("%w: metrics_refresh_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
