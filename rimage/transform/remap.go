package transform

import (
	"math"

	"github.com/markvilar/mynd-sub000/rimage"
)

// Interpolation selects how RemapImage samples between pixels.
type Interpolation int

const (
	// InterpolationBilinear blends the four surrounding pixels.
	InterpolationBilinear Interpolation = iota
	// InterpolationNearest takes the closest pixel.
	InterpolationNearest
)

// BorderMode selects what RemapImage reads outside of the source image.
type BorderMode int

const (
	// BorderConstant reads a fixed border value.
	BorderConstant BorderMode = iota
	// BorderReplicate repeats the edge pixel, aaa|abcd|ddd.
	BorderReplicate
	// BorderReflect101 mirrors around the edge pixel, cb|abcd|cb.
	BorderReflect101
)

type remapOptions struct {
	interpolation Interpolation
	border        BorderMode
	borderValue   float32
}

// RemapOption configures RemapImage.
type RemapOption func(*remapOptions)

func WithInterpolation(interpolation Interpolation) RemapOption {
	return func(o *remapOptions) {
		o.interpolation = interpolation
	}
}

func WithBorderMode(border BorderMode) RemapOption {
	return func(o *remapOptions) {
		o.border = border
	}
}

// WithBorderValue sets the value read outside the image in BorderConstant mode.
func WithBorderValue(v float32) RemapOption {
	return func(o *remapOptions) {
		o.borderValue = v
	}
}

// borderIndex maps i into [0, n) for the border mode. ok is false if the constant border applies.
func borderIndex(i, n int, border BorderMode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch border {
	case BorderReplicate:
		if i < 0 {
			return 0, true
		}
		return n - 1, true
	case BorderReflect101:
		if n == 1 {
			return 0, true
		}
		period := 2 * (n - 1)
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i, true
	default:
		return 0, false
	}
}

// sampler reads all channels of an image at subpixel positions.
type sampler struct {
	img  *rimage.Image
	opts remapOptions
}

// sample writes the interpolated channels at (x, y) into out.
func (s sampler) sample(x, y float64, out []float32) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		for c := range out {
			out[c] = s.opts.borderValue
		}
		return
	}
	if s.opts.interpolation == InterpolationNearest {
		s.accumulate(int(math.Round(x)), int(math.Round(y)), 1, out, true)
		return
	}

	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	first := true
	for _, n := range [4]struct {
		dx, dy int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{1, 0, fx * (1 - fy)},
		{0, 1, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		// zero weights are skipped so infinite samples do not turn into NaN
		if n.w == 0 {
			continue
		}
		s.accumulate(ix+n.dx, iy+n.dy, n.w, out, first)
		first = false
	}
}

func (s sampler) accumulate(x, y int, w float64, out []float32, reset bool) {
	bx, okX := borderIndex(x, s.img.Width(), s.opts.border)
	by, okY := borderIndex(y, s.img.Height(), s.opts.border)
	for c := range out {
		var v float32
		if okX && okY {
			v = s.img.Get(bx, by, c)
		} else {
			v = s.opts.borderValue
		}
		contribution := float32(w) * v
		if reset {
			out[c] = contribution
		} else {
			out[c] += contribution
		}
	}
}

// RemapImage resamples every channel of img at the source coordinates stored in m. The result
// has the size of the map. Defaults are bilinear interpolation and a constant zero border.
func RemapImage(img *rimage.Image, m *PixelMap, opts ...RemapOption) *rimage.Image {
	o := remapOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	s := sampler{img: img, opts: o}
	out := rimage.NewImage(m.Width(), m.Height(), img.Channels())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			p := m.At(x, y)
			s.sample(p.X, p.Y, out.Pixel(x, y))
		}
	}
	return out
}
