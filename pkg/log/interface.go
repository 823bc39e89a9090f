// Package log provides a structured logging interface for gboost training
// and prediction operations.
//
// The package defines a minimal, slog-compatible logging interface backed by
// zerolog, together with standard attribute keys for machine learning
// operations. Loggers are cheap to derive and safe for concurrent use.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("ensemble.gbt")
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 7,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. The With method derives a
// contextual logger with pre-populated fields.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error, stack trace information is attached
	// when available.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// This allows dependency injection and testing with different implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
