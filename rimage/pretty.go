package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RangeToPrettyPicture colours a single channel range map from red (near) to blue (far).
// min and max bound the colour ramp; pass min >= max to use the finite extent of the image.
// Non-finite and non-positive samples are black.
func RangeToPrettyPicture(rangeMap *Image, min, max float64) (*image.NRGBA, error) {
	if rangeMap.Channels() != 1 {
		return nil, errors.Errorf("expected single channel range map, got %d channels", rangeMap.Channels())
	}
	if min >= max {
		lo, hi, ok := rangeMap.MinMax()
		if !ok {
			lo, hi = 0, 1
		}
		min, max = float64(lo), float64(hi)
	}
	span := max - min
	if span <= 0 {
		span = 1
	}

	img := image.NewNRGBA(rangeMap.Bounds())
	for y := 0; y < rangeMap.Height(); y++ {
		for x := 0; x < rangeMap.Width(); x++ {
			z := float64(rangeMap.Get(x, y, 0))
			if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
				continue
			}
			ratio := (math.Min(math.Max(z, min), max) - min) / span
			r, g, b := colorful.Hsv(240*ratio, 1, 1).RGB255()
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, 255})
		}
	}
	return img, nil
}

// NormalsToPrettyPicture maps unit normals from [-1, 1] to [0, 255] per axis. Zero normals
// are black.
func NormalsToPrettyPicture(normals *Image) (*image.NRGBA, error) {
	if normals.Channels() != 3 {
		return nil, errors.Errorf("expected three channel normal map, got %d channels", normals.Channels())
	}
	img := image.NewNRGBA(normals.Bounds())
	for y := 0; y < normals.Height(); y++ {
		for x := 0; x < normals.Width(); x++ {
			n := normals.Pixel(x, y)
			if n[0] == 0 && n[1] == 0 && n[2] == 0 {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{
				clampByte(127.5 * (n[0] + 1)),
				clampByte(127.5 * (n[1] + 1)),
				clampByte(127.5 * (n[2] + 1)),
				255,
			})
		}
	}
	return img, nil
}
