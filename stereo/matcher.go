package stereo

import (
	"context"
	"sync"

	"github.com/markvilar/mynd-sub000/rimage"
)

// A Matcher estimates disparity for a rectified image pair.
//
// Both inputs are the rectified first and second images, as produced by the rectification,
// unflipped and of equal size. The first output is referenced on the first image and the second
// output on the second image. Both outputs are single channel maps of the input size whose values
// are the positive horizontal shift, in pixels, toward the matching pixel in the other image.
// Values at or below zero mean no match. Implementations may be non-reentrant; see
// NewSerializedMatcher.
type Matcher interface {
	Match(ctx context.Context, left, right *rimage.Image) (leftDisparity, rightDisparity *rimage.Image, err error)
}

// MatcherFunc adapts a function to a Matcher.
type MatcherFunc func(ctx context.Context, left, right *rimage.Image) (*rimage.Image, *rimage.Image, error)

// Match calls f.
func (f MatcherFunc) Match(ctx context.Context, left, right *rimage.Image) (*rimage.Image, *rimage.Image, error) {
	return f(ctx, left, right)
}

type serializedMatcher struct {
	mu      sync.Mutex
	matcher Matcher
}

// NewSerializedMatcher wraps a matcher so that at most one Match call runs at a time.
func NewSerializedMatcher(matcher Matcher) Matcher {
	return &serializedMatcher{matcher: matcher}
}

func (sm *serializedMatcher) Match(ctx context.Context, left, right *rimage.Image) (*rimage.Image, *rimage.Image, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.matcher.Match(ctx, left, right)
}

// MatcherError reports a failed or invalid disparity estimate.
type MatcherError struct {
	Err error
}

func (e *MatcherError) Error() string {
	return "disparity matcher failed: " + e.Err.Error()
}

func (e *MatcherError) Unwrap() error {
	return e.Err
}
