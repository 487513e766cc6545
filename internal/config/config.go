package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultInstanceID = "00000000-0000-0000-0000-000000000000"
)

// Config stores development registrar settings loaded from environment variables.
type Config struct {
	HTTPAddr        string
	InstanceID      string
	SecretKey       string
	TokenSecret     string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

// Load builds Config from environment variables using stable defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", defaultHTTPAddr),
		InstanceID:      getenv("BEAMS_INSTANCE_ID", defaultInstanceID),
		SecretKey:       getenv("BEAMS_SECRET_KEY", ""),
		TokenSecret:     getenv("BEAMS_TOKEN_SECRET", ""),
		LogLevel:        ParseLogLevel(getenv("LOG_LEVEL", "info")),
		ShutdownTimeout: parseDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// ParseLogLevel maps debug/warn/error to slog levels; anything else is info.
func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
