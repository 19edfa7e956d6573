package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GOPOWER_WORKERS", "GOPOWER_FIT_TIMEOUT", "GOPOWER_SEED", "GOPOWER_ALPHA", "GOPOWER_LOG_LEVEL", "GOPOWER_DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Greater(t, cfg.Run.Workers, 0)
	assert.Equal(t, 30*time.Second, cfg.Run.FitTimeout)
	assert.Equal(t, int64(42), cfg.Run.Seed)
	assert.Equal(t, 0.05, cfg.Run.Alpha)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.HasDatabase())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOPOWER_WORKERS", "3")
	t.Setenv("GOPOWER_FIT_TIMEOUT", "5s")
	t.Setenv("GOPOWER_SEED", "-7")
	t.Setenv("GOPOWER_ALPHA", "0.01")
	t.Setenv("GOPOWER_LOG_LEVEL", "debug")
	t.Setenv("GOPOWER_DATABASE_URL", "postgres://localhost/power")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Run.Workers)
	assert.Equal(t, 5*time.Second, cfg.Run.FitTimeout)
	assert.Equal(t, int64(-7), cfg.Run.Seed)
	assert.Equal(t, 0.01, cfg.Run.Alpha)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.HasDatabase())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GOPOWER_WORKERS", "zero"},
		{"GOPOWER_WORKERS", "0"},
		{"GOPOWER_FIT_TIMEOUT", "-1s"},
		{"GOPOWER_FIT_TIMEOUT", "soon"},
		{"GOPOWER_SEED", "abc"},
		{"GOPOWER_ALPHA", "1.5"},
		{"GOPOWER_ALPHA", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
