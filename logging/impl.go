package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeFormat is the timestamp layout of console lines.
const TimeFormat = "2006-01-02T15:04:05.000Z0700"

// errUnpairedKey stands in for the value of a trailing key without one. It carries no stack so
// zap encodes it as its message alone.
var errUnpairedKey = errors.New("unpaired log key")

type structuredLogger struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newStructuredLogger(name string, level Level, inUTC bool, appenders ...Appender) *structuredLogger {
	return &structuredLogger{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, appenders: appenders}
}

func (l *structuredLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.write(DEBUG, msg, keysAndValues)
}

func (l *structuredLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.write(INFO, msg, keysAndValues)
}

func (l *structuredLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.write(WARN, msg, keysAndValues)
}

func (l *structuredLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.write(ERROR, msg, keysAndValues)
}

func (l *structuredLogger) Named(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return &structuredLogger{name: name, level: NewAtomicLevelAt(l.Level()), inUTC: l.inUTC, appenders: l.appenders}
}

func (l *structuredLogger) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *structuredLogger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *structuredLogger) Level() Level {
	return l.level.Get()
}

func (l *structuredLogger) Sync() error {
	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

// write is called directly from the exported level methods, which puts the caller of those
// methods two frames up.
func (l *structuredLogger) write(level Level, msg string, keysAndValues []interface{}) {
	if level < l.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
		Caller:     zapcore.NewEntryCaller(runtime.Caller(2)),
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	fields := pairFields(keysAndValues)

	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Write(entry, fields))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck
	}
}

// pairFields turns alternating keys and values into zap fields, in order.
func pairFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.NamedError(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// consoleLine renders an entry as tab separated time, level, logger name, caller and message,
// followed by the fields as one JSON object when there are any. The line is returned without the
// fields if they fail to encode.
func consoleLine(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	parts := []string{entry.Time.Format(TimeFormat), strings.ToUpper(entry.Level.String())}
	if entry.LoggerName != "" {
		parts = append(parts, entry.LoggerName)
	}
	if entry.Caller.Defined {
		parts = append(parts, entry.Caller.TrimmedPath())
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(parts, buf.String()), "\t"), nil
}
