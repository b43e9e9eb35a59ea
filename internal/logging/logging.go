// Package logging constructs the application logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to stderr. verbose enables debug
// level output.
func New(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// NewWithWriter returns a logger writing to w at the given level.
func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
