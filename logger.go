package exercise

import (
	"io"
	"log/slog"
)

// Logger defines the interface for runtime logging.
// The runtime uses structured logging with key-value pairs so hosts can
// route its output into whatever logging library they already use.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// This approach is compatible with popular structured logging libraries
// like slog, logrus, zap, and others. NewSlogLogger adapts a *slog.Logger.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for lifecycle transitions like initialization and completion.
	//
	// Example:
	//   logger.Info("Exercise started", "exercise", "ex-1")
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	// Used for caught errors that the runtime recovered from.
	//
	// Example:
	//   logger.Error("Plugin failed to initialize", "plugin", "hud", "error", err)
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	// Used for conditions that are unusual but don't prevent normal operation,
	// such as schema warnings in permissive mode.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Used for ignored interactions and other diagnostic detail.
	Debug(msg string, args ...any)
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the given slog logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return discardLogger()
}

// discardLogger is used when the host provides no logger.
func discardLogger() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
