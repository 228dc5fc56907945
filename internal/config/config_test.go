package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "")
	t.Setenv("CLICKHOUSE_PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "default", cfg.User)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NotZero(t, cfg.DialTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("CLICKHOUSE_USER", "scanner")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ch.internal", cfg.Host)
	assert.Equal(t, 9440, cfg.Port)
	assert.Equal(t, "scanner", cfg.User)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadBadPort(t *testing.T) {
	t.Setenv("CLICKHOUSE_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBadLogLevel(t *testing.T) {
	t.Setenv("CLICKHOUSE_PORT", "")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)
}
