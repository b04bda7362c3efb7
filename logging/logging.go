// Package logging contains the structured logger used by the rectification and stereo packages.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Logger emits structured entries: a message followed by alternating keys and values.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Named returns a logger sharing the appenders of this one, named "<name>.<subname>".
	Named(subname string) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
	Level() Level
	Sync() error
}

// Appender is an output for log entries. It is the write half of `zapcore.Core`, so zap cores
// such as the test observer are appenders as well.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// NewLogger returns a logger writing Info+ entries to stdout in UTC.
func NewLogger(name string) Logger {
	return newStructuredLogger(name, INFO, true, NewStdoutAppender())
}

// NewBlankLogger returns a Debug+ logger in UTC without any appenders.
func NewBlankLogger(name string) Logger {
	return newStructuredLogger(name, DEBUG, true)
}

// NewTestLogger returns a Debug+ logger writing to the test output in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records every entry in memory.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return newStructuredLogger("", DEBUG, false, NewTestAppender(tb), observerCore), observedLogs
}
