package rimage

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func checkerboard(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/2+y/2)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func TestLosslessRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := checkerboard(8, 6)
	for _, ext := range []string{".png", ".tiff", ".ppm"} {
		t.Run(ext, func(t *testing.T) {
			fn := filepath.Join(dir, "board"+ext)
			test.That(t, WriteImageToFile(fn, src), test.ShouldBeNil)

			img, err := ReadImageFromFile(fn)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, img.Width(), test.ShouldEqual, 8)
			test.That(t, img.Height(), test.ShouldEqual, 6)
			test.That(t, img.Pixel(0, 0), test.ShouldResemble, []float32{255, 0, 0})
			test.That(t, img.Pixel(2, 0), test.ShouldResemble, []float32{0, 0, 255})
		})
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "gray.jpg")
	img := NewFilledImage(16, 16, 1, 128)
	test.That(t, WriteFloatImageToFile(fn, img), test.ShouldBeNil)

	read, err := ReadImageFromFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Channels(), test.ShouldEqual, 1)
	test.That(t, read.Get(8, 8, 0), test.ShouldAlmostEqual, 128, 2)
}

func TestUnsupportedFormat(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "img.bmp")
	err := WriteImageToFile(fn, checkerboard(2, 2))
	test.That(t, errors.Is(err, ErrUnsupportedFormat), test.ShouldBeTrue)

	_, err = ReadImageFromFile(fn)
	test.That(t, errors.Is(err, ErrUnsupportedFormat), test.ShouldBeTrue)

	_, err = ReadImageFromFile(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}
