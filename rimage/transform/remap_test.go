package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/markvilar/mynd-sub000/rimage"
)

func TestBorderIndex(t *testing.T) {
	for _, tc := range []struct {
		i, n   int
		border BorderMode
		want   int
		ok     bool
	}{
		{2, 5, BorderConstant, 2, true},
		{-1, 5, BorderConstant, 0, false},
		{5, 5, BorderConstant, 0, false},
		{-3, 5, BorderReplicate, 0, true},
		{9, 5, BorderReplicate, 4, true},
		{-1, 5, BorderReflect101, 1, true},
		{-2, 5, BorderReflect101, 2, true},
		{5, 5, BorderReflect101, 3, true},
		{6, 5, BorderReflect101, 2, true},
		{13, 5, BorderReflect101, 3, true},
		{-4, 1, BorderReflect101, 0, true},
	} {
		got, ok := borderIndex(tc.i, tc.n, tc.border)
		test.That(t, ok, test.ShouldEqual, tc.ok)
		if tc.ok {
			test.That(t, got, test.ShouldEqual, tc.want)
		}
	}
}

func rampImage(width, height int) *rimage.Image {
	img := rimage.NewImage(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, 0, float32(10*x+y))
		}
	}
	return img
}

func TestRemapImageInterpolation(t *testing.T) {
	img := rampImage(4, 3)
	m := NewPixelMap(2, 1)
	m.Set(0, 0, r2.Point{X: 1.5, Y: 0.5})
	m.Set(1, 0, r2.Point{X: 2.4, Y: 1})

	out := RemapImage(img, m)
	test.That(t, out.Width(), test.ShouldEqual, 2)
	test.That(t, out.Height(), test.ShouldEqual, 1)
	test.That(t, out.Get(0, 0, 0), test.ShouldAlmostEqual, 15.5, 1e-5)
	test.That(t, out.Get(1, 0, 0), test.ShouldAlmostEqual, 25, 1e-5)

	out = RemapImage(img, m, WithInterpolation(InterpolationNearest))
	test.That(t, out.Get(1, 0, 0), test.ShouldEqual, float32(21))
}

func TestRemapImageBorders(t *testing.T) {
	img := rampImage(4, 3)
	m := NewPixelMap(3, 1)
	m.Set(0, 0, r2.Point{X: -1, Y: 0})
	m.Set(1, 0, r2.Point{X: 5, Y: 2})
	m.Set(2, 0, r2.Point{X: math.NaN(), Y: 0})

	out := RemapImage(img, m)
	test.That(t, out.Data(), test.ShouldResemble, []float32{0, 0, 0})

	out = RemapImage(img, m, WithBorderValue(-7))
	test.That(t, out.Data(), test.ShouldResemble, []float32{-7, -7, -7})

	out = RemapImage(img, m, WithBorderMode(BorderReplicate))
	test.That(t, out.Get(0, 0, 0), test.ShouldEqual, float32(0))
	test.That(t, out.Get(1, 0, 0), test.ShouldEqual, float32(32))

	out = RemapImage(img, m, WithBorderMode(BorderReflect101))
	test.That(t, out.Get(0, 0, 0), test.ShouldEqual, float32(10))
	test.That(t, out.Get(1, 0, 0), test.ShouldEqual, float32(12))
}

func TestRemapImageInfinity(t *testing.T) {
	img := rimage.NewFilledImage(3, 1, 1, 4)
	img.Set(1, 0, 0, float32(math.Inf(1)))
	m := NewPixelMap(3, 1)
	m.Set(0, 0, r2.Point{X: 0, Y: 0})
	m.Set(1, 0, r2.Point{X: 0.5, Y: 0})
	m.Set(2, 0, r2.Point{X: 2, Y: 0})

	out := RemapImage(img, m)
	test.That(t, out.Get(0, 0, 0), test.ShouldEqual, float32(4))
	test.That(t, math.IsInf(float64(out.Get(1, 0, 0)), 1), test.ShouldBeTrue)
	test.That(t, out.Get(2, 0, 0), test.ShouldEqual, float32(4))

	// an infinite border leaks into partially covered pixels only
	edge := NewPixelMap(2, 1)
	edge.Set(0, 0, r2.Point{X: 0, Y: 0})
	edge.Set(1, 0, r2.Point{X: -0.5, Y: 0})
	out = RemapImage(rimage.NewFilledImage(3, 1, 1, 4), edge, WithBorderValue(float32(math.Inf(1))))
	test.That(t, out.Get(0, 0, 0), test.ShouldEqual, float32(4))
	test.That(t, math.IsInf(float64(out.Get(1, 0, 0)), 1), test.ShouldBeTrue)
}

func TestRemapImageChannels(t *testing.T) {
	img := rimage.NewImage(2, 2, 3)
	img.SetPixel(1, 1, 1, 2, 3)
	m := NewPixelMap(1, 1)
	m.Set(0, 0, r2.Point{X: 1, Y: 1})
	out := RemapImage(img, m)
	test.That(t, out.Channels(), test.ShouldEqual, 3)
	test.That(t, out.Pixel(0, 0), test.ShouldResemble, []float32{1, 2, 3})
}
