package common

import (
	"log/slog"
	"os"
)

// SetupLogger configures the global logger with appropriate settings.
// Packages derive component-scoped loggers from it with
// slog.Default().With("component", ...).
func SetupLogger(level slog.Level, format string) error {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
