package pgmig

import (
	"fmt"
	"strings"
)

// Log levels passed to a LogFunc.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// LogFunc adapts a plain (level, message) sink to Logger. Key/value args are
// appended to the message as " key=value" pairs.
type LogFunc func(level, message string)

func (f LogFunc) Debug(msg string, args ...any) {
	f(LevelDebug, formatMessage(msg, args...))
}

func (f LogFunc) Info(msg string, args ...any) {
	f(LevelInfo, formatMessage(msg, args...))
}

func (f LogFunc) Warn(msg string, args ...any) {
	f(LevelWarn, formatMessage(msg, args...))
}

func (f LogFunc) Error(msg string, args ...any) {
	f(LevelError, formatMessage(msg, args...))
}

func formatMessage(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}
