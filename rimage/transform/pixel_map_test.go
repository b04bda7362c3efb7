package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/markvilar/mynd-sub000/rimage"
)

func TestComputePixelMapIdentity(t *testing.T) {
	c := NewPinholeCalibration(100, 100, 39.5, 29.5, 80, 60)
	m := ComputePixelMap(c, eye(3), c, 80, 60)
	test.That(t, m.Width(), test.ShouldEqual, 80)
	test.That(t, m.Height(), test.ShouldEqual, 60)
	for y := 0; y < 60; y += 7 {
		for x := 0; x < 80; x += 9 {
			p := m.At(x, y)
			test.That(t, p.X, test.ShouldAlmostEqual, x, 1e-4)
			test.That(t, p.Y, test.ShouldAlmostEqual, y, 1e-4)
		}
	}
}

func TestComputePixelMapDistortion(t *testing.T) {
	src := NewPinholeCalibration(100, 100, 39.5, 29.5, 80, 60)
	src.Distortion = [5]float64{-0.2, 0, 0, 0, 0}
	dst := src
	dst.Distortion = [5]float64{}
	m := ComputePixelMap(src, eye(3), dst, 80, 60)

	// the principal point is fixed and barrel distortion pulls the corners inwards
	centre := m.At(39, 29)
	test.That(t, centre.X, test.ShouldAlmostEqual, 39, 0.01)
	corner := m.At(0, 0)
	test.That(t, corner.X, test.ShouldBeGreaterThan, 0)
	test.That(t, corner.Y, test.ShouldBeGreaterThan, 0)
}

func TestComputePixelMapBehindCamera(t *testing.T) {
	c := NewPinholeCalibration(100, 100, 9.5, 9.5, 20, 20)
	m := ComputePixelMap(c, rotationFromVector(r3.Vector{Y: math.Pi}), c, 20, 20)
	test.That(t, m.At(0, 0), test.ShouldResemble, r2.Point{X: -1, Y: -1})
	test.That(t, m.At(19, 7), test.ShouldResemble, r2.Point{X: -1, Y: -1})
}

func affinePixelMap(width, height int, fn func(p r2.Point) r2.Point) *PixelMap {
	m := NewPixelMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, fn(r2.Point{X: float64(x), Y: float64(y)}))
		}
	}
	return m
}

func TestInvertPixelMap(t *testing.T) {
	for _, tc := range []struct {
		name    string
		forward func(p r2.Point) r2.Point
		inverse func(p r2.Point) r2.Point
	}{
		{
			"scale and shift",
			func(p r2.Point) r2.Point { return r2.Point{X: 0.8*p.X + 5, Y: 0.9*p.Y + 3} },
			func(p r2.Point) r2.Point { return r2.Point{X: (p.X - 5) / 0.8, Y: (p.Y - 3) / 0.9} },
		},
		{
			"mirrored",
			func(p r2.Point) r2.Point { return r2.Point{X: 59 - p.X, Y: 39 - p.Y} },
			func(p r2.Point) r2.Point { return r2.Point{X: 59 - p.X, Y: 39 - p.Y} },
		},
		{
			"swirl",
			func(p r2.Point) r2.Point {
				return r2.Point{X: p.X + 2*math.Sin(p.Y/10), Y: p.Y + 1.5*math.Cos(p.X/12)}
			},
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			forward := affinePixelMap(60, 40, tc.forward)
			inverse := InvertPixelMap(forward, DefaultInverseIterations, DefaultInverseStep)
			test.That(t, inverse.Width(), test.ShouldEqual, 60)
			test.That(t, inverse.Height(), test.ShouldEqual, 40)
			for y := 10; y < 30; y += 3 {
				for x := 12; x < 48; x += 5 {
					got := inverse.At(x, y)
					if tc.inverse != nil {
						want := tc.inverse(r2.Point{X: float64(x), Y: float64(y)})
						test.That(t, got.Sub(want).Norm(), test.ShouldBeLessThan, 0.05)
					}
					// composing forward with the inverse gives back the pixel
					back := tc.forward(got)
					test.That(t, back.Sub(r2.Point{X: float64(x), Y: float64(y)}).Norm(), test.ShouldBeLessThan, 0.05)
				}
			}
		})
	}
}

func TestInvertPixelMapOntoLargerGrid(t *testing.T) {
	// a 40x30 canvas sampling an 80x60 image at twice its pixel pitch
	forward := affinePixelMap(40, 30, func(p r2.Point) r2.Point { return p.Mul(2) })
	test.That(t, gridRatio(40, 80), test.ShouldAlmostEqual, 39.0/79)
	test.That(t, gridRatio(40, 1), test.ShouldEqual, 1.0)

	check := func(inverse *PixelMap) {
		test.That(t, inverse.Width(), test.ShouldEqual, 80)
		test.That(t, inverse.Height(), test.ShouldEqual, 60)
		for y := 0; y < 56; y += 5 {
			for x := 0; x < 76; x += 5 {
				got := inverse.At(x, y)
				test.That(t, got.Sub(r2.Point{X: float64(x) / 2, Y: float64(y) / 2}).Norm(), test.ShouldBeLessThan, 0.05)
			}
		}
	}
	check(invertPixelMap(forward, 80, 60, DefaultInverseIterations, DefaultInverseStep, nil))

	// seeds are refined on the canvas and kept as they are off it
	offset := r2.Point{X: 0.7, Y: 0.4}
	seeded := invertPixelMap(forward, 80, 60, DefaultInverseIterations, DefaultInverseStep,
		func(p r2.Point) (r2.Point, bool) {
			if p.X == 79 {
				return r2.Point{X: 45, Y: 1}, true
			}
			return p.Mul(0.5).Add(offset), true
		})
	check(seeded)
	test.That(t, seeded.At(79, 10), test.ShouldResemble, r2.Point{X: 45, Y: 1})
}

func TestPixelMapFromImage(t *testing.T) {
	_, err := PixelMapFromImage(rimage.NewImage(2, 2, 3))
	test.That(t, err, test.ShouldNotBeNil)

	m, err := PixelMapFromImage(NewIdentityPixelMap(3, 2).Image())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.At(2, 1), test.ShouldResemble, r2.Point{X: 2, Y: 1})
}
