// Package log configures the process-wide slog logger shared by the
// server and worker entrypoints.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a configuration string to a slog level. Unknown
// values fall back to info so a typo never silences a process.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Setup builds a text handler writing to stdout, installs it as the
// default slog logger and returns it.
func Setup(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}
