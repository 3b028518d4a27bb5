package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. SMARTCRED_LOG_LEVEL selects the level
// (debug, warn, error; anything else means info).
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("SMARTCRED_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
