package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Handlers and services receive it via
// constructors; nothing logs through a package-level default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
