package stereo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/markvilar/mynd-sub000/rimage"
	"github.com/markvilar/mynd-sub000/rimage/transform"
	"github.com/markvilar/mynd-sub000/utils"
)

// DefaultNormalThreshold is the smallest sine of the angle between the row and column tangents
// accepted as a surface normal. The sine does not depend on range or focal length.
const DefaultNormalThreshold = 1e-7

// PointsFromRange back-projects every pixel of a range map with the camera matrix of calibration
// and returns the points as a 3-channel image of camera coordinates. Pixels with infinite range
// give non-finite points.
func PointsFromRange(rangeMap *rimage.Image, calibration transform.CameraCalibration) (*rimage.Image, error) {
	if rangeMap.Channels() != 1 {
		return nil, errors.Errorf("range map must have 1 channel, got %d", rangeMap.Channels())
	}
	points := rimage.NewImage(rangeMap.Width(), rangeMap.Height(), 3)
	for y := 0; y < rangeMap.Height(); y++ {
		for x := 0; x < rangeMap.Width(); x++ {
			p := calibration.PixelToPoint(float64(x), float64(y), float64(rangeMap.Get(x, y, 0)))
			points.SetPixel(x, y, float32(p.X), float32(p.Y), float32(p.Z))
		}
	}
	return points, nil
}

// NormalsFromRange estimates unit surface normals from a range map. The points of PointsFromRange
// give tangents along rows and columns from central differences, one-sided at the image border,
// and the normal is their cross product. For a surface facing the camera the normal points away
// from it, flipped negates every normal. Pixels with non-finite neighbours, or whose tangents are
// closer to parallel than a sine of threshold, get the zero vector.
func NormalsFromRange(
	rangeMap *rimage.Image,
	calibration transform.CameraCalibration,
	threshold float64,
	flipped bool,
) (*rimage.Image, error) {
	points, err := PointsFromRange(rangeMap, calibration)
	if err != nil {
		return nil, err
	}
	w, h := points.Width(), points.Height()

	at := func(x, y int) r3.Vector {
		p := points.Pixel(x, y)
		return r3.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	tangent := func(a, b r3.Vector, span int) r3.Vector {
		return b.Sub(a).Mul(1 / float64(span))
	}

	sign := 1.0
	if flipped {
		sign = -1
	}
	out := rimage.NewImage(w, h, 3)
	for y := 0; y < h; y++ {
		y0, y1 := utils.MaxInt(y-1, 0), utils.MinInt(y+1, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := utils.MaxInt(x-1, 0), utils.MinInt(x+1, w-1)
			if x1 == x0 || y1 == y0 {
				continue
			}
			tx := tangent(at(x0, y), at(x1, y), x1-x0)
			ty := tangent(at(x, y0), at(x, y1), y1-y0)
			n := tx.Cross(ty)
			norm := n.Norm()
			sine := norm / (tx.Norm() * ty.Norm())
			if math.IsNaN(sine) || math.IsInf(sine, 0) || norm == 0 || sine < threshold {
				continue
			}
			n = n.Mul(sign / norm)
			out.SetPixel(x, y, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	return out, nil
}
