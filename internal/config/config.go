// Package config loads process-wide configuration from the environment,
// with an optional .env file in the working directory taking effect first.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the store endpoint and logging settings for a run.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// DialTimeout bounds connection establishment to the store.
	DialTimeout time.Duration

	LogLevel slog.Level
}

// Load reads configuration from environment variables, after loading a .env
// file if one exists. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:        getEnvDefault("CLICKHOUSE_HOST", "localhost"),
		User:        getEnvDefault("CLICKHOUSE_USER", "default"),
		Password:    getEnvDefault("CLICKHOUSE_PASSWORD", "password"),
		Database:    getEnvDefault("CLICKHOUSE_DATABASE", "default"),
		DialTimeout: 10 * time.Second,
	}

	var err error
	cfg.Port, err = getEnvInt("CLICKHOUSE_PORT", 9000)
	if err != nil {
		return nil, fmt.Errorf("CLICKHOUSE_PORT: %w", err)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// SetupLogger installs the default slog logger. Logs go to stderr: stdout is
// reserved for search results and JSON output.
func SetupLogger(cfg *Config) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q, valid: debug, info, warn, error", s)
	}
}
