// Package logger provides test logging helpers for internal packages.
package logger

import (
	"fmt"
	"testing"

	"github.com/timvw/openai-tracing-go/logger"
)

// NewFailTestLogger returns a Logger that logs debug messages through the
// test and fails the test on warnings and errors. Useful for catching
// unexpected internal warnings in tests.
func NewFailTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	return &failTestLogger{t: t}
}

type failTestLogger struct {
	t *testing.T
}

func (f *failTestLogger) Debug(msg string, args ...any) {
	f.t.Logf("DEBUG %s %s", msg, formatArgs(args))
}

func (f *failTestLogger) Warn(msg string, args ...any) {
	f.t.Errorf("unexpected warning: %s %s", msg, formatArgs(args))
}

func (f *failTestLogger) Error(msg string, args ...any) {
	f.t.Errorf("unexpected error: %s %s", msg, formatArgs(args))
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	return fmt.Sprint(args...)
}
