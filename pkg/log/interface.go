// Package log provides a structured logging interface for skbatch.
//
// The Logger interface is slog-compatible in shape (message plus alternating
// key/value fields) and is backed by zerolog in production. Components take a
// Logger through their options so tests can swap in a TestLogger.
//
// Example usage:
//
//	logger := log.GetLogger().With(log.ComponentKey, "driver")
//	logger.Info("Run complete",
//	    log.BatchesKey, 12,
//	    log.SamplesKey, 12000,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional key/value fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key/value fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key/value fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error it is
	// attached as the "error" field (with its stack trace when available) and
	// the remaining fields are treated as key/value pairs.
	//
	// Example:
	//   logger.Error("Run failed", err, log.StageKey, "batch")
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
