package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: warnings and errors only.
// TEST_DEBUG=1 (or any level name, e.g. TEST_DEBUG=info) turns it up.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv("TEST_DEBUG"); v != "" {
		level = ParseLevel(v, slog.LevelDebug)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
