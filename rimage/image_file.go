package rimage

import (
	"bufio"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for file extensions the codec does not know.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DecodeImageFromFile reads a png, jpeg, tiff or ppm file as a standard library image.
func DecodeImageFromFile(fn string) (img image.Image, err error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	r := bufio.NewReader(f)
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	case ".tif", ".tiff":
		img, err = tiff.Decode(r)
	case ".ppm":
		img, err = ppm.Decode(r)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot read %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", fn)
	}
	return img, nil
}

// ReadImageFromFile reads an image file into a float image.
func ReadImageFromFile(fn string) (*Image, error) {
	img, err := DecodeImageFromFile(fn)
	if err != nil {
		return nil, err
	}
	return ConvertImage(img), nil
}

// WriteImageToFile writes img using the encoder matching the file extension.
func WriteImageToFile(fn string, img image.Image) (err error) {
	ext := strings.ToLower(filepath.Ext(fn))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".ppm":
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "cannot write %q", ext)
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	switch ext {
	case ".png":
		err = png.Encode(w, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".ppm":
		err = ppm.Encode(w, img)
	}
	if err != nil {
		return errors.Wrapf(err, "cannot encode %s", fn)
	}
	return w.Flush()
}

// WriteFloatImageToFile converts img to 8 bit and writes it.
func WriteFloatImageToFile(fn string, img *Image) error {
	std, err := img.ToStdImage()
	if err != nil {
		return err
	}
	return WriteImageToFile(fn, std)
}
