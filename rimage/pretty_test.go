package rimage

import (
	"image/color"
	"math"
	"testing"

	"go.viam.com/test"
)

func TestRangeToPrettyPicture(t *testing.T) {
	rng := NewImage(3, 1, 1)
	rng.Set(0, 0, 0, 1)
	rng.Set(1, 0, 0, 5)
	rng.Set(2, 0, 0, float32(math.Inf(1)))

	pic, err := RangeToPrettyPicture(rng, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pic.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{255, 0, 0, 255})
	test.That(t, pic.NRGBAAt(1, 0), test.ShouldResemble, color.NRGBA{0, 0, 255, 255})
	test.That(t, pic.NRGBAAt(2, 0), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})

	_, err = RangeToPrettyPicture(NewImage(1, 1, 3), 0, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNormalsToPrettyPicture(t *testing.T) {
	normals := NewImage(2, 1, 3)
	normals.SetPixel(1, 0, 0, 0, 1)
	pic, err := NormalsToPrettyPicture(normals)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pic.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})
	test.That(t, pic.NRGBAAt(1, 0), test.ShouldResemble, color.NRGBA{128, 128, 255, 255})
}
