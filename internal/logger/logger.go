// Package logger builds the service-wide zerolog logger.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to out at the given level.
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
