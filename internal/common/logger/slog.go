// Package logger provides the operational logging shared by the TC2
// diagnostic tools: a structured slog logger writing to stderr, and a CSV
// audit trail recording one row per executed test run.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup configures a structured text logger writing to stderr.
// Valid levels are DEBUG, INFO, WARN and ERROR; verbose forces DEBUG.
func Setup(verbose bool, level string) *slog.Logger {
	lvl := ParseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level, defaulting to INFO for
// anything it does not recognize.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
