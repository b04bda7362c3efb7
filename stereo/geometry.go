// Package stereo turns rectified stereo image pairs into disparity, range and surface normal maps.
package stereo

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/markvilar/mynd-sub000/logging"
	"github.com/markvilar/mynd-sub000/rimage"
	"github.com/markvilar/mynd-sub000/rimage/transform"
	"github.com/markvilar/mynd-sub000/utils"
)

// Geometry is the result of evaluating one stereo frame. All maps are on the rectified grid.
// It is never modified after construction; the images it returns must not be modified either.
type Geometry struct {
	rectification   *transform.RectificationResult
	rawImages       utils.Pair[*rimage.Image]
	rectifiedImages utils.Pair[*rimage.Image]
	disparities     utils.Pair[*rimage.Image]
	rangeMaps       utils.Pair[*rimage.Image]
	normalMaps      utils.Pair[*rimage.Image]
}

func (g *Geometry) Rectification() *transform.RectificationResult {
	return g.rectification
}

func (g *Geometry) RawImages() utils.Pair[*rimage.Image] {
	return g.rawImages
}

// RectifiedImages are the matcher inputs, after the optional image filter.
func (g *Geometry) RectifiedImages() utils.Pair[*rimage.Image] {
	return g.rectifiedImages
}

// Disparities are the matcher outputs, after the optional disparity filter.
func (g *Geometry) Disparities() utils.Pair[*rimage.Image] {
	return g.disparities
}

// RangeMaps hold the depth along the optical axis; +Inf marks pixels without a match.
func (g *Geometry) RangeMaps() utils.Pair[*rimage.Image] {
	return g.rangeMaps
}

// NormalMaps hold three channel unit normals; the zero vector marks pixels without a normal.
func (g *Geometry) NormalMaps() utils.Pair[*rimage.Image] {
	return g.normalMaps
}

type geometryOptions struct {
	imageFilter      rimage.Filter
	disparityFilter  rimage.Filter
	disparityEpsilon float64
	normalThreshold  float64
	flipNormals      bool
	logger           logging.Logger
}

// GeometryOption configures ComputeStereoGeometry.
type GeometryOption func(*geometryOptions)

// WithImageFilter filters both rectified images before matching.
func WithImageFilter(filter rimage.Filter) GeometryOption {
	return func(o *geometryOptions) {
		o.imageFilter = filter
	}
}

// WithDisparityFilter filters both disparity maps before the range conversion.
func WithDisparityFilter(filter rimage.Filter) GeometryOption {
	return func(o *geometryOptions) {
		o.disparityFilter = filter
	}
}

func WithDisparityEpsilon(epsilon float64) GeometryOption {
	return func(o *geometryOptions) {
		o.disparityEpsilon = epsilon
	}
}

func WithNormalThreshold(threshold float64) GeometryOption {
	return func(o *geometryOptions) {
		o.normalThreshold = threshold
	}
}

// WithFlipNormals makes normals point toward the camera when true, the default.
func WithFlipNormals(flip bool) GeometryOption {
	return func(o *geometryOptions) {
		o.flipNormals = flip
	}
}

func WithLogger(logger logging.Logger) GeometryOption {
	return func(o *geometryOptions) {
		o.logger = logger
	}
}

// ComputeStereoGeometry rectifies a raw image pair, estimates disparity with matcher and derives
// range and normal maps for both cameras. Matcher failures are returned as *MatcherError and
// no partial result is returned.
func ComputeStereoGeometry(
	ctx context.Context,
	rectification *transform.RectificationResult,
	matcher Matcher,
	images utils.Pair[*rimage.Image],
	opts ...GeometryOption,
) (*Geometry, error) {
	o := geometryOptions{
		disparityEpsilon: DefaultDisparityEpsilon,
		normalThreshold:  DefaultNormalThreshold,
		flipNormals:      true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewBlankLogger("stereo")
	}
	start := time.Now()

	rectified, err := transform.RectifyImagePair(images, rectification)
	if err != nil {
		return nil, err
	}
	if o.imageFilter != nil {
		if rectified, err = utils.MapPairErr(rectified, o.imageFilter); err != nil {
			return nil, errors.Wrap(err, "image filter failed")
		}
	}

	disparities, err := match(ctx, matcher, rectified)
	if err != nil {
		return nil, err
	}
	if o.disparityFilter != nil {
		if disparities, err = utils.MapPairErr(disparities, o.disparityFilter); err != nil {
			return nil, errors.Wrap(err, "disparity filter failed")
		}
	}

	baseline := rectification.Baseline()
	calibrations := rectification.RectifiedCalibrations()
	rangeMaps, err := utils.MapPairErr(
		utils.NewPair(
			cameraMap{disparities.First, calibrations.First},
			cameraMap{disparities.Second, calibrations.Second},
		),
		func(c cameraMap) (*rimage.Image, error) {
			return RangeFromDisparity(c.img, baseline, math.Abs(c.calibration.FocalLength().X), o.disparityEpsilon)
		},
	)
	if err != nil {
		return nil, err
	}
	normalMaps, err := utils.MapPairErr(
		utils.NewPair(
			cameraMap{rangeMaps.First, calibrations.First},
			cameraMap{rangeMaps.Second, calibrations.Second},
		),
		func(c cameraMap) (*rimage.Image, error) {
			return NormalsFromRange(c.img, c.calibration, o.normalThreshold, o.flipNormals)
		},
	)
	if err != nil {
		return nil, err
	}

	o.logger.Debugw("computed stereo geometry",
		"width", rectified.First.Width(),
		"height", rectified.First.Height(),
		"valid_first", countFinite(rangeMaps.First),
		"valid_second", countFinite(rangeMaps.Second),
		"elapsed", time.Since(start),
	)

	return &Geometry{
		rectification:   rectification,
		rawImages:       images,
		rectifiedImages: rectified,
		disparities:     disparities,
		rangeMaps:       rangeMaps,
		normalMaps:      normalMaps,
	}, nil
}

type cameraMap struct {
	img         *rimage.Image
	calibration transform.CameraCalibration
}

// match runs the matcher and checks its outputs against the matcher contract.
func match(ctx context.Context, matcher Matcher, rectified utils.Pair[*rimage.Image]) (utils.Pair[*rimage.Image], error) {
	left, right, err := matcher.Match(ctx, rectified.First, rectified.Second)
	if err != nil {
		return utils.Pair[*rimage.Image]{}, &MatcherError{Err: err}
	}
	for _, d := range []*rimage.Image{left, right} {
		switch {
		case d == nil:
			return utils.Pair[*rimage.Image]{}, &MatcherError{Err: errors.New("missing disparity map")}
		case d.Channels() != 1:
			return utils.Pair[*rimage.Image]{}, &MatcherError{
				Err: errors.Errorf("disparity map must have 1 channel, got %d", d.Channels()),
			}
		case !d.SameSize(rectified.First):
			return utils.Pair[*rimage.Image]{}, &MatcherError{
				Err: errors.Errorf("disparity map is %dx%d, expected %dx%d",
					d.Width(), d.Height(), rectified.First.Width(), rectified.First.Height()),
			}
		}
	}
	return utils.NewPair(left, right), nil
}

func countFinite(img *rimage.Image) int {
	n := 0
	for _, v := range img.Data() {
		if utils.IsFinite(float64(v)) {
			n++
		}
	}
	return n
}

// DistortStereoGeometry maps the range and normal maps of g back onto the original camera grids.
// Pixels without a rectified source get range +Inf and the zero normal. Normals are resampled from
// the nearest pixel so every one stays unit length or zero.
func DistortStereoGeometry(g *Geometry) (ranges, normals utils.Pair[*rimage.Image]) {
	inverse := g.rectification.InversePixelMaps()
	rangeBorder := transform.WithBorderValue(float32(math.Inf(1)))
	ranges = utils.NewPair(
		transform.RemapImage(g.rangeMaps.First, inverse.First, rangeBorder),
		transform.RemapImage(g.rangeMaps.Second, inverse.Second, rangeBorder),
	)
	nearest := transform.WithInterpolation(transform.InterpolationNearest)
	normals = utils.NewPair(
		transform.RemapImage(g.normalMaps.First, inverse.First, nearest),
		transform.RemapImage(g.normalMaps.Second, inverse.Second, nearest),
	)
	return ranges, normals
}
