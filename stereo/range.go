package stereo

import (
	"math"

	"github.com/pkg/errors"

	"github.com/markvilar/mynd-sub000/rimage"
)

// DefaultDisparityEpsilon is the largest disparity treated as no match.
const DefaultDisparityEpsilon = 1e-6

// RangeFromDisparity converts a disparity map to a range map, range = baseline*focalLength/d.
// Disparities at or below epsilon, and NaN disparities, get range +Inf.
func RangeFromDisparity(disparity *rimage.Image, baseline, focalLength, epsilon float64) (*rimage.Image, error) {
	if disparity.Channels() != 1 {
		return nil, errors.Errorf("disparity map must have 1 channel, got %d", disparity.Channels())
	}
	if !(baseline > 0) || !(focalLength > 0) {
		return nil, errors.Errorf("baseline %v and focal length %v must be positive", baseline, focalLength)
	}
	scale := baseline * focalLength
	out := rimage.NewImage(disparity.Width(), disparity.Height(), 1)
	in, data := disparity.Data(), out.Data()
	for k, d := range in {
		dd := float64(d)
		if math.IsNaN(dd) || dd <= epsilon {
			data[k] = float32(math.Inf(1))
			continue
		}
		data[k] = float32(scale / dd)
	}
	return out, nil
}
