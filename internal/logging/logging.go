// Package logging builds the JSON [log/slog] loggers used by both switchboard
// services. Every record carries a "service" attribute so that logs from the
// flag service and the status service can share a sink.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a logger that writes JSON to stderr at the given level.
// Accepted level strings (case-insensitive): "debug", "info", "warn", "error".
// An empty string defaults to "info".
func New(service, level string) *slog.Logger {
	return NewWithWriter(service, level, os.Stderr)
}

// NewWithWriter creates a logger writing JSON to w at the given level.
func NewWithWriter(service, level string, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	if service = strings.TrimSpace(service); service != "" {
		logger = logger.With(slog.String("service", service))
	}
	return logger
}

// ParseLevel converts a level string to a [slog.Level].
// Returns [slog.LevelInfo] for unrecognised values.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
