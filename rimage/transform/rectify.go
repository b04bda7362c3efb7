package transform

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/markvilar/mynd-sub000/logging"
	"github.com/markvilar/mynd-sub000/rimage"
	"github.com/markvilar/mynd-sub000/utils"
)

// DefaultAlpha keeps every pixel of both original images on the rectified canvas.
const DefaultAlpha = 1.0

type rectificationOptions struct {
	alpha             float64
	width, height     int
	inverseIterations int
	inverseStep       float64
	logger            logging.Logger
}

// RectificationOption configures ComputeStereoRectification and ComposeRectification.
type RectificationOption func(*rectificationOptions)

// WithAlpha sets the canvas fit, 0 for valid pixels only and 1 for all pixels.
func WithAlpha(alpha float64) RectificationOption {
	return func(o *rectificationOptions) {
		o.alpha = alpha
	}
}

// WithResolution sets the size of the rectified images. The default is the size of the first camera.
func WithResolution(width, height int) RectificationOption {
	return func(o *rectificationOptions) {
		o.width = width
		o.height = height
	}
}

// WithInverseIterations sets the iteration budget and step of the inverse pixel maps.
func WithInverseIterations(iterations int, step float64) RectificationOption {
	return func(o *rectificationOptions) {
		o.inverseIterations = iterations
		o.inverseStep = step
	}
}

func WithLogger(logger logging.Logger) RectificationOption {
	return func(o *rectificationOptions) {
		o.logger = logger
	}
}

func newRectificationOptions(calibrations utils.Pair[CameraCalibration], opts []RectificationOption) rectificationOptions {
	o := rectificationOptions{
		alpha:             DefaultAlpha,
		width:             calibrations.First.Width,
		height:            calibrations.First.Height,
		inverseIterations: DefaultInverseIterations,
		inverseStep:       DefaultInverseStep,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewBlankLogger("rectification")
	}
	return o
}

// RectificationResult is a complete stereo rectification: the original and rectified
// calibrations, the forward maps (rectified to original pixels), the inverse maps (original to
// rectified pixels) and the transforms they were built from. It is immutable and can be shared
// between goroutines; the maps it returns must not be modified.
type RectificationResult struct {
	calibrations          utils.Pair[CameraCalibration]
	rectifiedCalibrations utils.Pair[CameraCalibration]
	pixelMaps             utils.Pair[*PixelMap]
	inversePixelMaps      utils.Pair[*PixelMap]
	transforms            RectificationTransforms
	affine                [3][3]float64
	baseline              float64
}

func (r *RectificationResult) Calibrations() utils.Pair[CameraCalibration] {
	return r.calibrations
}

// RectifiedCalibrations are undistorted and share one orientation. The second camera sits at
// (baseline, 0, 0).
func (r *RectificationResult) RectifiedCalibrations() utils.Pair[CameraCalibration] {
	return r.rectifiedCalibrations
}

// PixelMaps map rectified pixels to original pixels.
func (r *RectificationResult) PixelMaps() utils.Pair[*PixelMap] {
	return r.pixelMaps
}

// InversePixelMaps map original pixels to rectified pixels.
func (r *RectificationResult) InversePixelMaps() utils.Pair[*PixelMap] {
	return r.inversePixelMaps
}

func (r *RectificationResult) Transforms() RectificationTransforms {
	return r.transforms
}

// Affine returns the canvas fit shared by both cameras.
func (r *RectificationResult) Affine() *mat.Dense {
	return denseFromArray(r.affine)
}

func (r *RectificationResult) Baseline() float64 {
	return r.baseline
}

// ComposeRectification combines the rectifying transforms and the canvas fit into rectified
// calibrations and builds the pixel maps of both cameras.
func ComposeRectification(
	calibrations utils.Pair[CameraCalibration],
	transforms *RectificationTransforms,
	affine mat.Matrix,
	opts ...RectificationOption,
) (*RectificationResult, error) {
	if err := checkStereoCalibrations(calibrations); err != nil {
		return nil, err
	}
	o := newRectificationOptions(calibrations, opts)
	if o.width <= 0 || o.height <= 0 {
		return nil, NewGeometryError("invalid rectified size (%d, %d)", o.width, o.height)
	}

	relative, _ := RelativePose(calibrations)
	baseline := Baseline(calibrations)
	common := transforms.RotationMatrix()
	commonT := common.T()

	cameraMatrices := utils.NewPair(
		mulDense(affine, transforms.Homographies.First.Matrix(), calibrations.First.Matrix(), commonT),
		mulDense(affine, transforms.Homographies.Second.Matrix(), calibrations.Second.Matrix(), relative, commonT),
	)
	rotations := utils.NewPair(common, mulDense(common, relative.T()))
	locations := utils.NewPair(r3.Vector{}, r3.Vector{X: baseline})

	rectified := utils.NewPair(
		rectifiedCalibration(cameraMatrices.First, rotations.First, locations.First, o.width, o.height),
		rectifiedCalibration(cameraMatrices.Second, rotations.Second, locations.Second, o.width, o.height),
	)

	type mapPair struct {
		forward, inverse *PixelMap
	}
	type cameraMaps struct {
		original, rectified CameraCalibration
	}
	maps, err := utils.RunPairInParallel(context.Background(),
		utils.NewPair(
			cameraMaps{calibrations.First, rectified.First},
			cameraMaps{calibrations.Second, rectified.Second},
		),
		func(ctx context.Context, c cameraMaps) (mapPair, error) {
			rotation := c.rectified.RotationMatrix()
			forward := ComputePixelMap(c.original, rotation, c.rectified, o.width, o.height)
			seed := func(p r2.Point) (r2.Point, bool) {
				q, err := UndistortRectifyPoint(c.original, rotation, c.rectified, p)
				return q, err == nil
			}
			inverse := invertPixelMap(forward, c.original.Width, c.original.Height, o.inverseIterations, o.inverseStep, seed)
			return mapPair{forward, inverse}, nil
		})
	if err != nil {
		return nil, err
	}

	o.logger.Debugw("composed stereo rectification",
		"width", o.width,
		"height", o.height,
		"baseline", baseline,
		"focal_length", rectified.First.FocalLength().X,
	)

	return &RectificationResult{
		calibrations:          calibrations,
		rectifiedCalibrations: rectified,
		pixelMaps:             utils.NewPair(maps.First.forward, maps.Second.forward),
		inversePixelMaps:      utils.NewPair(maps.First.inverse, maps.Second.inverse),
		transforms:            *transforms,
		affine:                arrayFromDense(affine),
		baseline:              baseline,
	}, nil
}

func rectifiedCalibration(k, rotation *mat.Dense, location r3.Vector, width, height int) CameraCalibration {
	matrix := arrayFromDense(k)
	matrix[2] = [3]float64{0, 0, 1}
	return CameraCalibration{
		CameraMatrix: matrix,
		Width:        width,
		Height:       height,
		Location:     arrayFromVector(location),
		Rotation:     arrayFromDense(rotation),
	}
}

// ComputeStereoRectification runs the full rectification of a calibrated stereo pair.
func ComputeStereoRectification(
	calibrations utils.Pair[CameraCalibration],
	opts ...RectificationOption,
) (*RectificationResult, error) {
	o := newRectificationOptions(calibrations, opts)
	transforms, err := ComputeRectifyingTransforms(calibrations)
	if err != nil {
		return nil, err
	}
	affine, err := ComputeCommonAffine(calibrations, transforms.Homographies, o.width, o.height, o.alpha)
	if err != nil {
		return nil, err
	}
	return ComposeRectification(calibrations, transforms, affine, opts...)
}

// RectifyImagePair resamples both original images onto the rectified grid.
func RectifyImagePair(
	images utils.Pair[*rimage.Image],
	result *RectificationResult,
	opts ...RemapOption,
) (utils.Pair[*rimage.Image], error) {
	calibrations := result.Calibrations()
	for _, check := range []struct {
		name  string
		img   *rimage.Image
		calib CameraCalibration
	}{
		{"first", images.First, calibrations.First},
		{"second", images.Second, calibrations.Second},
	} {
		if check.img == nil {
			return utils.Pair[*rimage.Image]{}, NewGeometryError("%s image is missing", check.name)
		}
		if check.img.Width() != check.calib.Width || check.img.Height() != check.calib.Height {
			return utils.Pair[*rimage.Image]{}, NewGeometryError(
				"%s image size %dx%d does not match calibration %dx%d",
				check.name, check.img.Width(), check.img.Height(), check.calib.Width, check.calib.Height)
		}
	}
	maps := result.PixelMaps()
	return utils.NewPair(
		RemapImage(images.First, maps.First, opts...),
		RemapImage(images.Second, maps.Second, opts...),
	), nil
}

// UndistortRectifyPoint maps a pixel of the original image src to the rectified image described
// by rectified. targetRotation rotates src camera coordinates into the rectified frame.
func UndistortRectifyPoint(
	src CameraCalibration,
	targetRotation mat.Matrix,
	rectified CameraCalibration,
	p r2.Point,
) (r2.Point, error) {
	n := src.normalize(p)
	x, y := src.Distorter().Undistort(n.X, n.Y)
	q, ok := rectified.PointToPixel(applyMatrix(targetRotation, r3.Vector{X: x, Y: y, Z: 1}))
	if !ok {
		return r2.Point{}, NewGeometryError("point %v maps behind the rectified camera", p)
	}
	return q, nil
}
