package logger

import (
	"log/slog"
	"os"
)

// New builds the process logger for the given environment. Production gets
// JSON at info level; every other environment gets text at debug level.
func New(env string) *slog.Logger {
	switch env {
	case "prod", "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
