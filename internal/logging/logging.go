// Package logging configures the process-wide slog logger.
//
// Components take a named child logger once and log with key/value pairs:
//
//	log := logging.Component("store")
//	log.Error("insert failed", "error_type", fmt.Sprintf("%T", err), "error", err)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init installs a text or JSON handler writing to stdout at the given level.
func Init(level slog.Level, jsonFormat bool) {
	InitWithWriter(os.Stdout, level, jsonFormat)
}

// InitWithWriter is Init with a custom destination, used by tests.
func InitWithWriter(w io.Writer, level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Component returns a logger tagged with component=name.
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With("component", name)
}

// ErrorAttrs returns the error category and message as log attributes.
func ErrorAttrs(err error) []any {
	return []any{"error_type", fmt.Sprintf("%T", err), "error", err.Error()}
}
