// Package config loads runtime settings from the environment. Everything has
// a usable default; only the database URL is genuinely optional and gates
// the persistence layer when absent.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"gopower/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Run      RunConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// RunConfig holds simulation execution settings
type RunConfig struct {
	Workers    int
	FitTimeout time.Duration
	Seed       int64
	Alpha      float64
}

// DatabaseConfig holds the optional run-store connection settings
type DatabaseConfig struct {
	URL string
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Run: RunConfig{
			Workers:    runtime.NumCPU(),
			FitTimeout: 30 * time.Second,
			Seed:       42,
			Alpha:      0.05,
		},
		Database: DatabaseConfig{URL: os.Getenv("GOPOWER_DATABASE_URL")},
		Logging:  LoggingConfig{Level: "info"},
	}

	if v := os.Getenv("GOPOWER_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil || workers <= 0 {
			return nil, errors.ConfigInvalid("GOPOWER_WORKERS must be a positive integer")
		}
		cfg.Run.Workers = workers
	}
	if v := os.Getenv("GOPOWER_FIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, errors.ConfigInvalid("GOPOWER_FIT_TIMEOUT must be a positive duration")
		}
		cfg.Run.FitTimeout = d
	}
	if v := os.Getenv("GOPOWER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("GOPOWER_SEED must be an integer")
		}
		cfg.Run.Seed = seed
	}
	if v := os.Getenv("GOPOWER_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil || alpha <= 0 || alpha >= 1 {
			return nil, errors.ConfigInvalid("GOPOWER_ALPHA must be in (0, 1)")
		}
		cfg.Run.Alpha = alpha
	}
	if v := os.Getenv("GOPOWER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, nil
}

// HasDatabase reports whether a run store is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}
