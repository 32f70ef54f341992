// Package logging builds the structured logger shared by every command.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/dentcheck/internal/config"
)

// ServiceName is attached to every log event.
const ServiceName = "dentcheck"

// NewLogger creates the logger configured by cfg on w, usually stderr.
// Stdout is reserved for the MCP stdio transport and for command output.
func NewLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	return New(w, cfg.LogLevel, cfg.LogFormat)
}

// New creates a logger on w. Format "console" renders human readable lines;
// anything else emits JSON. Unknown levels fall back to info.
func New(w io.Writer, level, format string) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	logger := zerolog.New(w).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}
