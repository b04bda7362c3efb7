package logging

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type frameSummary struct {
	Frame int
	label string
}

type rigSummary struct {
	baseline float64
	Camera   frameSummary
	note     string
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	// `Helper` will result in test failures being associated with the callers line number. It's
	// more useful to report which `assertLogMatches` call failed rather than which assertion
	// inside this function. Maybe.
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	// Verify the filename matches exactly.
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	// Verify the line number is in fact a number, but no more.
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	// Structured logging with the "w" API. E.g: `Debugw` has an extra tab delimited output.
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[4]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[4]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

type failingAppender struct {
	writes int
}

func (fa *failingAppender) Write(zapcore.Entry, []zapcore.Field) error {
	fa.writes++
	return errors.New("disk full")
}

func (fa *failingAppender) Sync() error {
	return errors.New("cannot sync")
}

// Console lines are tab separated, e.g:
//
//	2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:87	loaded calibration
func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newStructuredLogger("", DEBUG, false, NewWriterAppender(notStdout))

	logger.Infow("loaded calibration")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	loaded calibration`)

	logger.Infow("rectified", "baseline", 0.5)
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	logging/impl_test.go:132	rectified	{"baseline":0.5}`)

	// only public fields are serialized
	logger.Warnw("rig", "key", "val", "rigSummary", rigSummary{0.5, frameSummary{3, "left"}, "foo"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	WARN	logging/impl_test.go:123	rig	{"key":"val","rigSummary":{"Camera":{"Frame":3}}}`)

	logger.Debugw("unpaired", 7, "seven", "dangling")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	DEBUG	logging/impl_test.go:125	unpaired	{"7":"seven","dangling":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newStructuredLogger("", WARN, false, NewWriterAppender(notStdout))

	logger.Debugw("dropped")
	logger.Infow("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warnw("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	logging/impl_test.go:67	kept`)

	logger.SetLevel(ERROR)
	test.That(t, logger.Level(), test.ShouldEqual, ERROR)
	logger.Warnw("dropped", "frame", 1)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	logger.Errorw("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	ERROR	logging/impl_test.go:67	kept`)
}

func TestNamed(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Named("stereo").Named("rectify")
	sub.Infow("computed rectification", "width", 640)

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "stereo.rectify")
	test.That(t, entries[0].Message, test.ShouldEqual, "computed rectification")
	test.That(t, entries[0].ContextMap()["width"], test.ShouldEqual, int64(640))

	// levels are copied, not shared
	sub.SetLevel(ERROR)
	test.That(t, logger.Level(), test.ShouldEqual, DEBUG)
}

func TestAppenderErrors(t *testing.T) {
	failing := &failingAppender{}
	notStdout := &bytes.Buffer{}
	logger := NewBlankLogger("rig")
	logger.AddAppender(failing)
	logger.AddAppender(NewWriterAppender(notStdout))

	logger.Infow("still written")
	test.That(t, failing.writes, test.ShouldEqual, 1)
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "rig")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "still written")

	err := logger.Sync()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 1)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot sync")
}

func TestLevelFromString(t *testing.T) {
	level, err := LevelFromString("WARNING")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("stereo")
	test.That(t, logger.Level(), test.ShouldEqual, INFO)
	logger.Debugw("not printed")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
