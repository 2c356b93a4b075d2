// Package env provides utilities for working with environment variables.
package env

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the value of the environment variable or the default if not set.
func Get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetInt returns the integer value of the environment variable, or the
// default if the variable is unset or not a valid integer.
func GetInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetDuration returns the duration value of the environment variable (in Go
// duration syntax, e.g. "30s"), or the default if unset or unparseable.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLogLevel resolves the LOG_LEVEL environment variable to a slog.Level,
// falling back when the variable is empty or unrecognised.
func ParseLogLevel(fallback slog.Level) slog.Level {
	if level, ok := logLevels[strings.ToLower(Get("LOG_LEVEL", ""))]; ok {
		return level
	}
	return fallback
}
