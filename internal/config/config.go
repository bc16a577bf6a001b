// Package config resolves process settings from the environment and the
// adaptive thresholds from a stack of runtime sources.
package config

import (
	"os"
	"strings"
)

// Config holds process-level settings.
type Config struct {
	// DBPath is the SQLite file path or Postgres DSN.
	DBPath string
	// Driver selects the store backend: "sqlite" or "postgres".
	Driver string
	// LogMode is "dev" (console) or "prod" (JSON).
	LogMode string
	// Trace enables the stdout span exporter.
	Trace bool

	// RedisAddr enables the Redis settings source when non-empty.
	RedisAddr string
	// RedisKey names the hash holding adaptive overrides.
	RedisKey string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:   "sqlite",
		LogMode:  "dev",
		RedisKey: "pathwise:adaptive",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("PATHWISE_DB"); p != "" {
		cfg.DBPath = p
	}
	if d := os.Getenv("PATHWISE_DB_DRIVER"); d != "" {
		cfg.Driver = d
	}
	if m := os.Getenv("PATHWISE_LOG_MODE"); m != "" {
		cfg.LogMode = m
	}
	switch strings.ToLower(os.Getenv("PATHWISE_TRACE")) {
	case "1", "true", "yes", "on":
		cfg.Trace = true
	}
	if a := os.Getenv("PATHWISE_REDIS_ADDR"); a != "" {
		cfg.RedisAddr = a
	}
	if k := os.Getenv("PATHWISE_REDIS_KEY"); k != "" {
		cfg.RedisKey = k
	}

	return cfg
}
