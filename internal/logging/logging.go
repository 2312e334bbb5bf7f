// Package logging builds the zerolog loggers used by the client and the examples
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger writing to w at the given level.
// Unknown levels fall back to info. pretty switches to the human-readable console format.
func New(level string, pretty bool, w io.Writer) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(zLevel)
}
