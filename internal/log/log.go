// Package log provides structured logging for the custody daemon.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates the root logger. Console output is human readable; JSON
// output is meant for log shippers.
func New(w io.Writer, level string, jsonOutput bool) zerolog.Logger {
	if !jsonOutput {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewDefault creates a console logger on stdout at the given level.
func NewDefault(level string) zerolog.Logger {
	return New(os.Stdout, level, false)
}

// WithComponent returns a child logger tagged with a component field
// (vault, horizon, monitor, store, http).
func WithComponent(lg zerolog.Logger, name string) zerolog.Logger {
	return lg.With().Str("component", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
