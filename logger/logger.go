// Package logger defines the logging interface used across the SDK.
//
// Logging is optional everywhere; components accept a Logger and fall back
// to Discard() when none is provided, so tracing never writes to stderr
// unless the caller asks for it.
package logger

import "log/slog"

// Logger is a minimal leveled logger with slog-style key-value arguments.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Discard returns a Logger that drops all messages.
func Discard() Logger {
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

// NewSlogLogger adapts a *slog.Logger to the Logger interface.
// If l is nil, slog.Default() is used.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
