package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Image is a dense row-major float32 raster with interleaved channels. It carries raw
// intensities as well as derived per-pixel quantities like disparity, range and surface normals.
type Image struct {
	data                    []float32
	width, height, channels int
}

// NewImage returns a zero-filled image of the given size.
func NewImage(width, height, channels int) *Image {
	return &Image{
		data:     make([]float32, width*height*channels),
		width:    width,
		height:   height,
		channels: channels,
	}
}

// NewImageFromData wraps data as an image. The slice is not copied.
func NewImageFromData(width, height, channels int, data []float32) (*Image, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, errors.Errorf("invalid image size %dx%dx%d", width, height, channels)
	}
	if len(data) != width*height*channels {
		return nil, errors.Errorf("data length %d does not match image size %dx%dx%d", len(data), width, height, channels)
	}
	return &Image{data: data, width: width, height: height, channels: channels}, nil
}

// NewFilledImage returns an image with every sample set to v.
func NewFilledImage(width, height, channels int, v float32) *Image {
	img := NewImage(width, height, channels)
	img.Fill(v)
	return img
}

func (i *Image) Width() int {
	return i.width
}

func (i *Image) Height() int {
	return i.height
}

func (i *Image) Channels() int {
	return i.channels
}

func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// In reports whether (x, y) lies inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

func (i *Image) kxy(x, y int) int {
	return ((y * i.width) + x) * i.channels
}

// Get returns channel c of the pixel at (x, y).
func (i *Image) Get(x, y, c int) float32 {
	return i.data[i.kxy(x, y)+c]
}

func (i *Image) Set(x, y, c int, v float32) {
	i.data[i.kxy(x, y)+c] = v
}

// Pixel returns a view onto all channels of the pixel at (x, y). Writes to the slice
// modify the image.
func (i *Image) Pixel(x, y int) []float32 {
	k := i.kxy(x, y)
	return i.data[k : k+i.channels : k+i.channels]
}

func (i *Image) SetPixel(x, y int, values ...float32) {
	copy(i.Pixel(x, y), values)
}

// Data returns the backing slice.
func (i *Image) Data() []float32 {
	return i.data
}

func (i *Image) Fill(v float32) {
	for k := range i.data {
		i.data[k] = v
	}
}

func (i *Image) Clone() *Image {
	data := make([]float32, len(i.data))
	copy(data, i.data)
	return &Image{data: data, width: i.width, height: i.height, channels: i.channels}
}

// SameSize reports whether both images have equal width and height. Channels are ignored.
func (i *Image) SameSize(other *Image) bool {
	return other != nil && i.width == other.width && i.height == other.height
}

// Channel copies channel c into a single channel image.
func (i *Image) Channel(c int) (*Image, error) {
	if c < 0 || c >= i.channels {
		return nil, errors.Errorf("channel %d out of range for %d channel image", c, i.channels)
	}
	out := NewImage(i.width, i.height, 1)
	for k := range out.data {
		out.data[k] = i.data[k*i.channels+c]
	}
	return out, nil
}

// MinMax returns the smallest and largest finite sample. ok is false if there are none.
func (i *Image) MinMax() (min, max float32, ok bool) {
	min = float32(math.Inf(1))
	max = float32(math.Inf(-1))
	for _, v := range i.data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		ok = true
	}
	return min, max, ok
}
