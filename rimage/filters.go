package rimage

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// A Filter maps an image to a new image of the same size. Filters must not modify their input.
type Filter func(img *Image) (*Image, error)

// ChainFilters applies filters in order.
func ChainFilters(filters ...Filter) Filter {
	return func(img *Image) (*Image, error) {
		out := img
		for _, f := range filters {
			if f == nil {
				continue
			}
			var err error
			if out, err = f(out); err != nil {
				return nil, err
			}
		}
		if out == img {
			out = img.Clone()
		}
		return out, nil
	}
}

// applyStdFilter runs an 8 bit imaging operation and restores the channel count of the input.
// Images with finite samples outside of [0, 255] are stretched linearly onto that range for the
// operation and mapped back afterwards, so only the 8 bit quantization of the stretched range is
// lost. Non-finite samples do not survive the conversion.
func applyStdFilter(img *Image, op func(image.Image) *image.NRGBA) (*Image, error) {
	lo, hi, ok := img.MinMax()
	offset, scale := float32(0), float32(1)
	if ok && (lo < 0 || hi > 255) {
		offset = lo
		if hi > lo {
			scale = 255 / (hi - lo)
		}
	}
	in := img
	if offset != 0 || scale != 1 {
		in = img.Clone()
		for k, v := range in.data {
			in.data[k] = (v - offset) * scale
		}
	}

	std, err := in.ToStdImage()
	if err != nil {
		return nil, err
	}
	out := ConvertImage(op(std))
	if img.Channels() == 1 {
		out = out.ToGray()
	}
	if offset != 0 || scale != 1 {
		for k, v := range out.data {
			out.data[k] = v/scale + offset
		}
	}
	return out, nil
}

// GaussianBlur returns a filter that blurs with the given sigma. Like AdjustContrast and Sharpen
// it works on 8 bit samples, see applyStdFilter.
func GaussianBlur(sigma float64) Filter {
	return func(img *Image) (*Image, error) {
		if sigma <= 0 {
			return img.Clone(), nil
		}
		return applyStdFilter(img, func(std image.Image) *image.NRGBA {
			return imaging.Blur(std, sigma)
		})
	}
}

// AdjustContrast returns a filter changing contrast by percentage in [-100, 100]. Contrast pivots
// around the middle of [0, 255], or of the sample range for images that exceed it.
func AdjustContrast(percentage float64) Filter {
	return func(img *Image) (*Image, error) {
		return applyStdFilter(img, func(std image.Image) *image.NRGBA {
			return imaging.AdjustContrast(std, percentage)
		})
	}
}

// Sharpen returns an unsharp mask filter with the given sigma.
func Sharpen(sigma float64) Filter {
	return func(img *Image) (*Image, error) {
		if sigma <= 0 {
			return img.Clone(), nil
		}
		return applyStdFilter(img, func(std image.Image) *image.NRGBA {
			return imaging.Sharpen(std, sigma)
		})
	}
}

// MedianFilter returns a filter taking the per channel median over a square window of the
// given odd size. Non-finite samples are skipped; a window without finite samples keeps the
// input value.
func MedianFilter(size int) Filter {
	return func(img *Image) (*Image, error) {
		if size <= 0 || size%2 == 0 {
			return nil, errors.Errorf("median window must be odd and positive, got %d", size)
		}
		half := size / 2
		out := img.Clone()
		window := make([]float64, 0, size*size)
		for y := 0; y < img.Height(); y++ {
			for x := 0; x < img.Width(); x++ {
				for c := 0; c < img.Channels(); c++ {
					window = window[:0]
					for yy := y - half; yy <= y+half; yy++ {
						for xx := x - half; xx <= x+half; xx++ {
							if !img.In(xx, yy) {
								continue
							}
							v := float64(img.Get(xx, yy, c))
							if math.IsNaN(v) || math.IsInf(v, 0) {
								continue
							}
							window = append(window, v)
						}
					}
					if len(window) == 0 {
						continue
					}
					median, err := stats.Median(window)
					if err != nil {
						return nil, err
					}
					out.Set(x, y, c, float32(median))
				}
			}
		}
		return out, nil
	}
}

// ClampFilter clamps every sample to [min, max]. NaN samples are left alone.
func ClampFilter(min, max float32) Filter {
	return func(img *Image) (*Image, error) {
		if min > max {
			return nil, errors.Errorf("clamp minimum %v greater than maximum %v", min, max)
		}
		out := img.Clone()
		for k, v := range out.data {
			if v < min {
				out.data[k] = min
			} else if v > max {
				out.data[k] = max
			}
		}
		return out, nil
	}
}
