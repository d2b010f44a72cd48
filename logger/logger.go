package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger at info level writing to stderr, so that
// stdout carries only the report.
func New() zerolog.Logger {
	return NewWithConfig("info", true, false)
}

// NewWithConfig builds a logger from the logging config section.
func NewWithConfig(level string, pretty, noColor bool) zerolog.Logger {
	return NewWriter(os.Stderr, level, pretty, noColor)
}

// NewWriter is NewWithConfig with an explicit output.
func NewWriter(out io.Writer, level string, pretty, noColor bool) zerolog.Logger {
	var log zerolog.Logger

	if pretty {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log = zerolog.New(output).With().Timestamp().Logger()
	} else {
		log = zerolog.New(out).With().Timestamp().Logger()
	}

	switch level {
	case "debug":
		log = log.Level(zerolog.DebugLevel)
	case "info":
		log = log.Level(zerolog.InfoLevel)
	case "warn":
		log = log.Level(zerolog.WarnLevel)
	case "error":
		log = log.Level(zerolog.ErrorLevel)
	default:
		log = log.Level(zerolog.InfoLevel)
	}

	return log
}
