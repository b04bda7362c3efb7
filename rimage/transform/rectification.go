package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/markvilar/mynd-sub000/utils"
)

// RectificationTransforms holds the rotation that makes both image planes coplanar with the
// baseline along the x axis, and the homography of each camera from original pixels to
// normalized rectified coordinates.
type RectificationTransforms struct {
	Rotation     [3][3]float64          `json:"rotation"`
	Homographies utils.Pair[Homography] `json:"homographies"`
}

// RotationMatrix returns the common rectifying rotation.
func (t *RectificationTransforms) RotationMatrix() *mat.Dense {
	return denseFromArray(t.Rotation)
}

// ComputeRectifyingTransforms splits the relative rotation of the stereo pair symmetrically
// between both cameras and then rotates both so the baseline lies on the x axis.
// The homography of each camera is its rectifying rotation times its inverse camera matrix.
func ComputeRectifyingTransforms(calibrations utils.Pair[CameraCalibration]) (*RectificationTransforms, error) {
	if err := checkStereoCalibrations(calibrations); err != nil {
		return nil, err
	}
	rotations := rectifyingRotations(calibrations)

	homographies, err := utils.MapPairErr(
		utils.NewPair(
			rectifyingHomography{calibrations.First, rotations.First},
			rectifyingHomography{calibrations.Second, rotations.Second},
		),
		rectifyingHomography.compute,
	)
	if err != nil {
		return nil, err
	}
	return &RectificationTransforms{
		Rotation:     arrayFromDense(rotations.First),
		Homographies: homographies,
	}, nil
}

// rectifyingRotations returns the rotation of each camera frame into the rectified frame.
func rectifyingRotations(calibrations utils.Pair[CameraCalibration]) utils.Pair[*mat.Dense] {
	r, t := RelativePose(calibrations)

	// half of the relative rotation, applied in opposite directions
	half := rotationFromVector(rotationVector(r).Mul(-0.5))
	t = applyMatrix(half, t)

	axis := r3.Vector{X: 1}
	if t.X <= 0 {
		axis.X = -1
	}
	align := eye(3)
	w := t.Cross(axis)
	if nw := w.Norm(); nw > 0 {
		angle := math.Acos(math.Min(1, math.Abs(t.X)/t.Norm()))
		align = rotationFromVector(w.Mul(angle / nw))
	}

	return utils.NewPair(
		mulDense(align, half.T()),
		mulDense(align, half),
	)
}

type rectifyingHomography struct {
	calibration CameraCalibration
	rotation    *mat.Dense
}

func (rh rectifyingHomography) compute() (Homography, error) {
	kInv, err := inverseDense(rh.calibration.Matrix())
	if err != nil {
		return Homography{}, NewGeometryError("camera matrix: %v", err)
	}
	return NewHomography(mulDense(rh.rotation, kInv)), nil
}
