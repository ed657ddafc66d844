// Package logger configures the process-wide structured logger used by the
// ratechat server and tools.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger from a level name ("debug", "info", "warn",
// "error") and a format name ("json" or "text"). Unknown values fall back to
// info-level text output.
func New(level, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
