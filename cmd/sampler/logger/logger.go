// Package logger builds the sampler's slog.Logger from configuration.
package logger

import (
	"log/slog"
	"os"

	"github.com/HatiCode/decaysample/cmd/sampler/config"
)

// New creates a slog.Logger from the configured format and level.
// Unknown values fall back to text format at info level.
func New(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
