// Package logger builds the zerolog loggers used across tally.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output
}

// New creates a structured logger on stderr, leaving stdout to command output.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level; unknown names mean info.
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
