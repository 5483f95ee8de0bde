// Package obslog centralizes zerolog setup for callers of Obscuro, the way
// the teacher's cmd/pokerforbots/shared/logging.go does for its own
// commands: a pretty console logger for interactive use and a structured
// JSON logger for production/batch runs.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New configures zerolog with pretty console output, for interactive runs.
func New(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewStructured configures zerolog for structured (JSON) output, for batch
// solves and long-running parallel-mode processes where logs are consumed
// by tooling rather than read directly.
func NewStructured(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Logger()
}
