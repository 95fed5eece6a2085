package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

// Init initializes the global logger
func Init() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "json" {
		Logger = zerolog.New(os.Stdout).With().
			Timestamp().
			Logger().
			Level(logLevel)
	} else {
		Logger = zerolog.New(os.Stdout).With().
			Timestamp().
			Logger().
			Level(logLevel).
			Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// WithRequestID adds request ID to logger
func WithRequestID(requestID string) zerolog.Logger {
	return Logger.With().Str("request_id", requestID).Logger()
}

// WithFields scopes the global logger to a chain and operation id. The
// scheduler uses it when a dropped-operation audit publish fails; the stage
// loops log through the Processor's own chain-scoped logger instead.
func WithFields(chain, operationID string) zerolog.Logger {
	return Logger.With().Str("chain", chain).Str("operation_id", operationID).Logger()
}

// GetLoggerFromContext returns the global logger; ctx is not inspected.
func GetLoggerFromContext(ctx interface{}) zerolog.Logger {
	// For now, return global logger
	// Can be enhanced to extract from context if needed
	return Logger
}

