package utils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NopLogger returns a logger that discards everything written to it.
func NopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LoggerOrNop returns log, or a discarding logger if log is nil.
func LoggerOrNop(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return NopLogger()
	}
	return log
}
