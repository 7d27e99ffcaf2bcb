package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging for the worker
type Logger struct {
	prefix string
	entry  *logrus.Entry
}

// NewLogger creates a new logger with a prefix
func NewLogger(prefix string) *Logger {
	return NewLoggerTo(prefix, os.Stdout)
}

// NewLoggerTo creates a prefixed logger that writes to w
func NewLoggerTo(prefix string, w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	return &Logger{
		prefix: prefix,
		entry:  logrus.NewEntry(base).WithField("component", prefix),
	}
}

// With returns a child logger carrying the given key-value pairs on every line
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		prefix: l.prefix,
		entry:  l.entry.WithFields(toFields(keysAndValues)),
	}
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Info(msg)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Warn(msg)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Error(msg)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

// toFields pairs up keys and values; a trailing key without a value is dropped
func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// Entry exposes the underlying logrus entry for libraries that take a
// printf-style logger, such as the asynq server.
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}
