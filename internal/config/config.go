// Package config defines service configuration and its loading order:
// defaults, then an optional YAML file, then PROPLINE_-prefixed
// environment variables.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects persistence: "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file when Store is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// CatalogFeed is an optional path to a line-catalog feed file
	// loaded at startup.
	CatalogFeed string `koanf:"catalog_feed"`

	// QueueSize bounds the in-memory resolution job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of resolution workers.
	WorkerCount int `koanf:"worker_count"`

	// OracleRate and OracleBurst cap outcome lookups per second.
	OracleRate  float64 `koanf:"oracle_rate"`
	OracleBurst int     `koanf:"oracle_burst"`

	// ResolveCron gates resolution passes; empty means always allowed.
	// Standard five-field cron, e.g. "0 9 * * 2" for Tuesday 09:00.
	ResolveCron string `koanf:"resolve_cron"`

	// ResolveWindowMinutes is how long the gate stays open after each
	// scheduled instant.
	ResolveWindowMinutes int `koanf:"resolve_window_minutes"`

	// MaxStandingsLimit caps GET /standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		Store:                "memory",
		SQLitePath:           "propline.db",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 4,
		OracleRate:           50,
		OracleBurst:          10,
		ResolveWindowMinutes: 120,
		MaxStandingsLimit:    100,
	}
}
