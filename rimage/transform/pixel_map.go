package transform

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/markvilar/mynd-sub000/rimage"
)

const (
	// DefaultInverseIterations is the fixed iteration budget of InvertPixelMap.
	DefaultInverseIterations = 20
	// DefaultInverseStep is the damping of each InvertPixelMap update.
	DefaultInverseStep = 0.5

	singularJacobian = 1e-12
)

// A PixelMap stores, for every destination pixel, the subpixel source coordinate to sample.
// Coordinates outside the source image mark pixels without a source.
type PixelMap struct {
	coords *rimage.Image
}

// NewPixelMap returns a map of the given size with every coordinate at the origin.
func NewPixelMap(width, height int) *PixelMap {
	return &PixelMap{coords: rimage.NewImage(width, height, 2)}
}

// NewIdentityPixelMap returns a map sampling every pixel from itself.
func NewIdentityPixelMap(width, height int) *PixelMap {
	m := NewPixelMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.coords.SetPixel(x, y, float32(x), float32(y))
		}
	}
	return m
}

// PixelMapFromImage wraps a two channel image of (x, y) coordinates.
func PixelMapFromImage(img *rimage.Image) (*PixelMap, error) {
	if img.Channels() != 2 {
		return nil, NewGeometryError("pixel map needs 2 channels, got %d", img.Channels())
	}
	return &PixelMap{coords: img}, nil
}

func (m *PixelMap) Width() int {
	return m.coords.Width()
}

func (m *PixelMap) Height() int {
	return m.coords.Height()
}

// At returns the source coordinate of destination pixel (x, y).
func (m *PixelMap) At(x, y int) r2.Point {
	p := m.coords.Pixel(x, y)
	return r2.Point{X: float64(p[0]), Y: float64(p[1])}
}

func (m *PixelMap) Set(x, y int, p r2.Point) {
	m.coords.SetPixel(x, y, float32(p.X), float32(p.Y))
}

// Image returns a copy of the coordinates as a two channel image.
func (m *PixelMap) Image() *rimage.Image {
	return m.coords.Clone()
}

// ComputePixelMap builds the map from a virtual destination camera back to a real source camera.
// targetRotation rotates source camera coordinates into the destination frame. Each destination
// ray is rotated back into the source frame, distorted with the source lens model and projected
// with the source camera matrix. Rays at or behind the source camera map to (-1, -1).
func ComputePixelMap(
	src CameraCalibration,
	targetRotation mat.Matrix,
	dst CameraCalibration,
	width, height int,
) *PixelMap {
	rT := transposeDense(targetRotation)
	distorter := src.Distorter()
	m := NewPixelMap(width, height)
	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			n := dst.normalize(r2.Point{X: float64(u), Y: float64(v)})
			ray := applyMatrix(rT, r3.Vector{X: n.X, Y: n.Y, Z: 1})
			if ray.Z <= 0 {
				m.Set(u, v, r2.Point{X: -1, Y: -1})
				continue
			}
			x, y := distorter.Transform(ray.X/ray.Z, ray.Y/ray.Z)
			m.Set(u, v, src.project(x, y))
		}
	}
	return m
}

// jacobianField holds the central difference derivatives of a map,
// (dfx/du, dfx/dv, dfy/du, dfy/dv) per pixel.
func jacobianField(m *PixelMap) *rimage.Image {
	w, h := m.Width(), m.Height()
	out := rimage.NewImage(w, h, 4)
	diff := func(a, b r2.Point, span float64) r2.Point {
		return b.Sub(a).Mul(1 / span)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, x1 := x-1, x+1
			if x0 < 0 {
				x0 = x
			}
			if x1 >= w {
				x1 = x
			}
			y0, y1 := y-1, y+1
			if y0 < 0 {
				y0 = y
			}
			if y1 >= h {
				y1 = y
			}
			du := r2.Point{}
			if x1 > x0 {
				du = diff(m.At(x0, y), m.At(x1, y), float64(x1-x0))
			}
			dv := r2.Point{}
			if y1 > y0 {
				dv = diff(m.At(x, y0), m.At(x, y1), float64(y1-y0))
			}
			out.SetPixel(x, y, float32(du.X), float32(dv.X), float32(du.Y), float32(dv.Y))
		}
	}
	return out
}

// InvertPixelMap approximates the inverse of forward on a grid of the same size.
// See invertPixelMap.
func InvertPixelMap(forward *PixelMap, iterations int, step float64) *PixelMap {
	return invertPixelMap(forward, forward.Width(), forward.Height(), iterations, step, nil)
}

// inverseSeed returns a starting estimate of the inverse at an original pixel, or false if it
// has none.
type inverseSeed func(p r2.Point) (r2.Point, bool)

// invertPixelMap approximates the inverse of forward on a width x height grid by damped
// fixed-point iteration. Every iteration resamples forward at the estimate, takes the residual
// against the target pixel and moves the estimate by step*J⁻¹*residual, where J is the local
// Jacobian of forward. The preconditioning keeps the iteration convergent for scaled and mirrored
// maps. The iteration budget is fixed.
//
// Without a seed the estimate starts at the target scaled from the width x height grid onto the
// forward grid. A seeded estimate is only refined while it stays on the forward grid, since the
// mirrored samples outside of it carry Jacobians of the wrong sign; seeds off the grid are kept as
// they are. Pixels without a preimage in forward get bounded but meaningless values.
func invertPixelMap(forward *PixelMap, width, height, iterations int, step float64, seed inverseSeed) *PixelMap {
	reflect := remapOptions{interpolation: InterpolationBilinear, border: BorderReflect101}
	coords := sampler{img: forward.coords, opts: reflect}
	jacobians := sampler{img: jacobianField(forward), opts: reflect}

	domain := r2.Rect{
		X: r1.Interval{Lo: 0, Hi: float64(forward.Width() - 1)},
		Y: r1.Interval{Lo: 0, Hi: float64(forward.Height() - 1)},
	}
	scale := r2.Point{X: gridRatio(forward.Width(), width), Y: gridRatio(forward.Height(), height)}

	inverse := NewPixelMap(width, height)
	f := make([]float32, 2)
	j := make([]float32, 4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			target := r2.Point{X: float64(x), Y: float64(y)}
			est := r2.Point{X: target.X * scale.X, Y: target.Y * scale.Y}
			seeded := false
			if seed != nil {
				if p, ok := seed(target); ok && isFinitePoint(p) {
					est, seeded = p, true
				}
			}
			if seeded && !domain.ContainsPoint(est) {
				inverse.Set(x, y, est)
				continue
			}
			for i := 0; i < iterations; i++ {
				coords.sample(est.X, est.Y, f)
				residual := target.Sub(r2.Point{X: float64(f[0]), Y: float64(f[1])})

				jacobians.sample(est.X, est.Y, j)
				a, b, c, d := float64(j[0]), float64(j[1]), float64(j[2]), float64(j[3])
				delta := residual
				if det := a*d - b*c; math.Abs(det) > singularJacobian && !math.IsNaN(det) {
					delta = r2.Point{
						X: (d*residual.X - b*residual.Y) / det,
						Y: (-c*residual.X + a*residual.Y) / det,
					}
				}
				next := est.Add(delta.Mul(step))
				if !isFinitePoint(next) || (seeded && !domain.ContainsPoint(next)) {
					break
				}
				est = next
			}
			inverse.Set(x, y, est)
		}
	}
	return inverse
}

// gridRatio maps pixel indices of a grid n pixels wide onto one m pixels wide, end to end.
func gridRatio(m, n int) float64 {
	if n < 2 {
		return 1
	}
	return float64(m-1) / float64(n-1)
}
