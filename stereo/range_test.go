package stereo

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/markvilar/mynd-sub000/rimage"
)

func TestRangeFromDisparity(t *testing.T) {
	disparity, err := rimage.NewImageFromData(6, 1, 1, []float32{
		50, 25, 10, 0, -3, float32(math.NaN()),
	})
	test.That(t, err, test.ShouldBeNil)

	rangeMap, err := RangeFromDisparity(disparity, 0.5, 1000, DefaultDisparityEpsilon)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rangeMap.Get(0, 0, 0), test.ShouldAlmostEqual, 10.0, 1e-5)
	test.That(t, rangeMap.Get(1, 0, 0), test.ShouldAlmostEqual, 20.0, 1e-5)
	test.That(t, rangeMap.Get(2, 0, 0), test.ShouldAlmostEqual, 50.0, 1e-5)
	for x := 3; x < 6; x++ {
		test.That(t, math.IsInf(float64(rangeMap.Get(x, 0, 0)), 1), test.ShouldBeTrue)
	}
}

func TestRangeMonotonic(t *testing.T) {
	disparity := rimage.NewImage(100, 1, 1)
	for x := 0; x < 100; x++ {
		disparity.Set(x, 0, 0, float32(x)*0.25+0.01)
	}
	rangeMap, err := RangeFromDisparity(disparity, 0.12, 700, DefaultDisparityEpsilon)
	test.That(t, err, test.ShouldBeNil)
	for x := 1; x < 100; x++ {
		test.That(t, rangeMap.Get(x, 0, 0), test.ShouldBeLessThan, rangeMap.Get(x-1, 0, 0))
	}
}

func TestRangeEpsilon(t *testing.T) {
	disparity := rimage.NewFilledImage(2, 2, 1, 0.5)
	rangeMap, err := RangeFromDisparity(disparity, 1, 100, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(float64(rangeMap.Get(1, 1, 0)), 1), test.ShouldBeTrue)

	rangeMap, err = RangeFromDisparity(disparity, 1, 100, 0.4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rangeMap.Get(1, 1, 0), test.ShouldAlmostEqual, 200.0, 1e-4)
}

func TestRangeErrors(t *testing.T) {
	_, err := RangeFromDisparity(rimage.NewImage(2, 2, 3), 1, 1, 0)
	test.That(t, err.Error(), test.ShouldContainSubstring, "1 channel")

	_, err = RangeFromDisparity(rimage.NewImage(2, 2, 1), 0, 1, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = RangeFromDisparity(rimage.NewImage(2, 2, 1), 1, math.NaN(), 0)
	test.That(t, err, test.ShouldNotBeNil)
}
