package transform

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/markvilar/mynd-sub000/utils"
)

// borderSegments is the number of segments each image side is split into when sampling the border.
const borderSegments = 8

// rectifiedBorder is the image border of one camera mapped onto the rectified plane.
type rectifiedBorder struct {
	top, bottom, left, right []r2.Point
}

func (b *rectifiedBorder) topLeft() r2.Point    { return b.top[0] }
func (b *rectifiedBorder) topRight() r2.Point   { return b.top[len(b.top)-1] }
func (b *rectifiedBorder) bottomLeft() r2.Point { return b.bottom[0] }

func (b *rectifiedBorder) points() []r2.Point {
	pts := make([]r2.Point, 0, 4*(borderSegments+1))
	pts = append(pts, b.top...)
	pts = append(pts, b.bottom...)
	pts = append(pts, b.left...)
	return append(pts, b.right...)
}

// outer is the bounding box of the whole border.
func (b *rectifiedBorder) outer() r2.Rect {
	return r2.RectFromPoints(b.points()...)
}

// inner is the largest axis aligned rectangle bounded by the sampled sides. It is empty if the
// sides cross.
func (b *rectifiedBorder) inner() r2.Rect {
	return r2.Rect{
		X: innerInterval(b.left, b.right, func(p r2.Point) float64 { return p.X }),
		Y: innerInterval(b.top, b.bottom, func(p r2.Point) float64 { return p.Y }),
	}
}

// innerInterval returns the gap between two opposite sides along one axis, whichever order they
// appear in on the rectified plane.
func innerInterval(sideA, sideB []r2.Point, coord func(r2.Point) float64) r1.Interval {
	mean := func(pts []r2.Point) float64 {
		sum := 0.0
		for _, p := range pts {
			sum += coord(p)
		}
		return sum / float64(len(pts))
	}
	lo, hi := sideA, sideB
	if mean(sideA) > mean(sideB) {
		lo, hi = sideB, sideA
	}
	interval := r1.Interval{Lo: coord(lo[0]), Hi: coord(hi[0])}
	for _, p := range lo {
		if v := coord(p); v > interval.Lo {
			interval.Lo = v
		}
	}
	for _, p := range hi {
		if v := coord(p); v < interval.Hi {
			interval.Hi = v
		}
	}
	return interval
}

// projectBorder samples the image border of a camera, undistorts it and maps it through the
// rectifying homography.
func projectBorder(c CameraCalibration, h Homography) (*rectifiedBorder, error) {
	distorter := c.Distorter()
	w, ht := float64(c.Width-1), float64(c.Height-1)
	project := func(px r2.Point) (r2.Point, error) {
		n := c.normalize(px)
		x, y := distorter.Undistort(n.X, n.Y)
		p, ok := h.Apply(c.project(x, y))
		if !ok {
			return r2.Point{}, NewGeometryError("image point %v maps behind the rectified plane", px)
		}
		if !isFinitePoint(p) {
			return r2.Point{}, NewGeometryError("image point %v maps to a non-finite rectified point", px)
		}
		return p, nil
	}
	side := func(from, to r2.Point) ([]r2.Point, error) {
		pts := make([]r2.Point, 0, borderSegments+1)
		for i := 0; i <= borderSegments; i++ {
			t := float64(i) / borderSegments
			p, err := project(from.Add(to.Sub(from).Mul(t)))
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
		return pts, nil
	}

	var b rectifiedBorder
	var err error
	if b.top, err = side(r2.Point{X: 0, Y: 0}, r2.Point{X: w, Y: 0}); err != nil {
		return nil, err
	}
	if b.bottom, err = side(r2.Point{X: 0, Y: ht}, r2.Point{X: w, Y: ht}); err != nil {
		return nil, err
	}
	if b.left, err = side(r2.Point{X: 0, Y: 0}, r2.Point{X: 0, Y: ht}); err != nil {
		return nil, err
	}
	if b.right, err = side(r2.Point{X: w, Y: 0}, r2.Point{X: w, Y: ht}); err != nil {
		return nil, err
	}
	return &b, nil
}

func checkRect(name string, rect r2.Rect) error {
	size := rect.Size()
	if !isFinitePoint(rect.Lo()) || !isFinitePoint(rect.Hi()) {
		return NewGeometryError("%s rectangle is not finite", name)
	}
	if rect.IsEmpty() || !(size.X > 0) || !(size.Y > 0) {
		return NewGeometryError("%s rectangle is degenerate: %v", name, rect)
	}
	return nil
}

// ComputeCommonAffine fits one affine transform, shared by both cameras, that maps normalized
// rectified coordinates onto a width x height canvas. With alpha = 1 the union of both rectified
// images fills the canvas so no pixel is lost; with alpha = 0 the intersection of the valid
// regions fills it so no invalid pixel is shown. Values in between interpolate scale and centre
// linearly. The valid regions only need to overlap for alpha < 1. Mirrored rectified images are flipped back using the corner order of the first camera.
func ComputeCommonAffine(
	calibrations utils.Pair[CameraCalibration],
	homographies utils.Pair[Homography],
	width, height int,
	alpha float64,
) (*mat.Dense, error) {
	if !(alpha >= 0 && alpha <= 1) {
		return nil, NewGeometryError("alpha must be in [0, 1], got %v", alpha)
	}
	if width < 2 || height < 2 {
		return nil, NewGeometryError("canvas %dx%d is too small", width, height)
	}

	first, err := projectBorder(calibrations.First, homographies.First)
	if err != nil {
		return nil, err
	}
	second, err := projectBorder(calibrations.Second, homographies.Second)
	if err != nil {
		return nil, err
	}

	outer := first.outer().Union(second.outer())
	if err := checkRect("outer", outer); err != nil {
		return nil, err
	}
	// the intersection only matters while alpha < 1, views that share no region still fit at 1
	inner := outer
	if alpha < 1 {
		inner = first.inner().Intersection(second.inner())
		if err := checkRect("inner", inner); err != nil {
			return nil, err
		}
	}

	flip := r2.Point{X: 1, Y: 1}
	if first.topLeft().X > first.topRight().X {
		flip.X = -1
	}
	if first.topLeft().Y > first.bottomLeft().Y {
		flip.Y = -1
	}

	canvas := r2.Point{X: float64(width - 1), Y: float64(height - 1)}
	scale := r2.Point{
		X: utils.Lerp(canvas.X/inner.Size().X, canvas.X/outer.Size().X, alpha) * flip.X,
		Y: utils.Lerp(canvas.Y/inner.Size().Y, canvas.Y/outer.Size().Y, alpha) * flip.Y,
	}
	center := r2.Point{
		X: utils.Lerp(inner.Center().X, outer.Center().X, alpha),
		Y: utils.Lerp(inner.Center().Y, outer.Center().Y, alpha),
	}

	return mat.NewDense(3, 3, []float64{
		scale.X, 0, canvas.X/2 - scale.X*center.X,
		0, scale.Y, canvas.Y/2 - scale.Y*center.Y,
		0, 0, 1,
	}), nil
}
