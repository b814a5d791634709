package pgmig

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	logger logrus.FieldLogger
}

// NewLogrusLogger returns a Logger writing to the given logrus logger, with
// key/value args attached as fields.
func NewLogrusLogger(logger logrus.FieldLogger) Logger {
	return &logrusLogger{logger: logger}
}

func (l *logrusLogger) Debug(msg string, args ...any) {
	l.entry(args).Debug(msg)
}

func (l *logrusLogger) Info(msg string, args ...any) {
	l.entry(args).Info(msg)
}

func (l *logrusLogger) Warn(msg string, args ...any) {
	l.entry(args).Warn(msg)
}

func (l *logrusLogger) Error(msg string, args ...any) {
	l.entry(args).Error(msg)
}

func (l *logrusLogger) entry(args []any) logrus.FieldLogger {
	if len(args) < 2 {
		return l.logger
	}

	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return l.logger.WithFields(fields)
}
