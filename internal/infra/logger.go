package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger with sane defaults for the service.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// NewDiscardLogger returns a logger that drops everything. Components require
// a logger value, so tests and optional wiring use this instead of nil checks.
func NewDiscardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Logger aliases zerolog.Logger for callers that only need the type.
type Logger = zerolog.Logger
