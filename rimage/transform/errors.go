package transform

import "github.com/pkg/errors"

// ErrGeometry is the root of every precondition failure in rectification and stereo geometry:
// invalid calibrations, a degenerate baseline, mismatched image sizes or a degenerate canvas fit.
var ErrGeometry = errors.New("invalid stereo geometry")

// NewGeometryError returns an error wrapping ErrGeometry.
func NewGeometryError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrGeometry, format, args...)
}
