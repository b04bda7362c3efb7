package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// ConvertImage copies a standard library image into a float image. Gray images become single
// channel, everything else becomes three channel RGB. Samples are on a 0-255 scale.
func ConvertImage(img image.Image) *Image {
	b := img.Bounds()
	switch typed := img.(type) {
	case *image.Gray:
		out := NewImage(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Set(x, y, 0, float32(typed.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return out
	case *image.Gray16:
		out := NewImage(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Set(x, y, 0, float32(typed.Gray16At(b.Min.X+x, b.Min.Y+y).Y)/257)
			}
		}
		return out
	default:
		out := NewImage(b.Dx(), b.Dy(), 3)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				out.SetPixel(x, y, float32(c.R), float32(c.G), float32(c.B))
			}
		}
		return out
	}
}

// ToGray collapses a colour image into luminance. Single channel images are cloned.
func (i *Image) ToGray() *Image {
	if i.channels == 1 {
		return i.Clone()
	}
	out := NewImage(i.width, i.height, 1)
	for y := 0; y < i.height; y++ {
		for x := 0; x < i.width; x++ {
			p := i.Pixel(x, y)
			if len(p) < 3 {
				out.Set(x, y, 0, p[0])
				continue
			}
			out.Set(x, y, 0, 0.299*p[0]+0.587*p[1]+0.114*p[2])
		}
	}
	return out
}

func clampByte(v float32) uint8 {
	f := float64(v)
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(math.Round(f))
}

// ToStdImage converts back to an 8 bit standard library image. One channel gives *image.Gray,
// three or four channels give *image.NRGBA.
func (i *Image) ToStdImage() (image.Image, error) {
	switch i.channels {
	case 1:
		out := image.NewGray(i.Bounds())
		for k, v := range i.data {
			out.Pix[k] = clampByte(v)
		}
		return out, nil
	case 3, 4:
		out := image.NewNRGBA(i.Bounds())
		for y := 0; y < i.height; y++ {
			for x := 0; x < i.width; x++ {
				p := i.Pixel(x, y)
				alpha := uint8(255)
				if i.channels == 4 {
					alpha = clampByte(p[3])
				}
				out.SetNRGBA(x, y, color.NRGBA{clampByte(p[0]), clampByte(p[1]), clampByte(p[2]), alpha})
			}
		}
		return out, nil
	default:
		return nil, errors.Errorf("cannot convert %d channel image to a standard image", i.channels)
	}
}

// ToGray16 scales a single channel image into 16 bit gray, e.g. for saving range maps in
// millimetres with scale 1000. Non-finite samples become 0.
func (i *Image) ToGray16(scale float64) (*image.Gray16, error) {
	if i.channels != 1 {
		return nil, errors.Errorf("expected single channel image, got %d channels", i.channels)
	}
	out := image.NewGray16(i.Bounds())
	for y := 0; y < i.height; y++ {
		for x := 0; x < i.width; x++ {
			v := float64(i.Get(x, y, 0)) * scale
			switch {
			case math.IsNaN(v), math.IsInf(v, 0), v <= 0:
				v = 0
			case v > math.MaxUint16:
				v = math.MaxUint16
			}
			out.SetGray16(x, y, color.Gray16{uint16(math.Round(v))})
		}
	}
	return out, nil
}
