package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// New creates and returns a new slog.Logger instance writing to w.
// The handler is set to JSON for machine-readable logs.
func New(w io.Writer, serviceName string, level slog.Level) *slog.Logger {
	log := slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	).With(
		slog.String("service", serviceName),
	)

	return log
}

// ParseLevel maps a LOG_LEVEL value (debug, info, warn, error) to a slog.Level.
// An empty value means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
