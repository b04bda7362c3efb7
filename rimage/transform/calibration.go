package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/markvilar/mynd-sub000/utils"
)

// rotationTolerance bounds the orthonormality error accepted for calibration rotations.
const rotationTolerance = 1e-6

// minBaseline is the shortest camera separation that can be rectified.
const minBaseline = 1e-12

// CameraCalibration is the intrinsic and extrinsic calibration of a single camera of a stereo rig.
// Rotation and Location map rig coordinates into the camera frame, x_cam = Rotation*x_rig + Location.
// Distortion holds Brown-Conrady coefficients in the order k1, k2, p1, p2, k3.
// The value is comparable, so it can key a cache, and copies never share state.
type CameraCalibration struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix" yaml:"camera_matrix"`
	Distortion   [5]float64    `json:"distortion" yaml:"distortion"`
	Width        int           `json:"width" yaml:"width"`
	Height       int           `json:"height" yaml:"height"`
	Location     [3]float64    `json:"location" yaml:"location"`
	Rotation     [3][3]float64 `json:"rotation" yaml:"rotation"`
}

// NewPinholeCalibration returns an undistorted calibration at the rig origin.
func NewPinholeCalibration(fx, fy, cx, cy float64, width, height int) CameraCalibration {
	return CameraCalibration{
		CameraMatrix: [3][3]float64{{fx, 0, cx}, {0, fy, cy}, {0, 0, 1}},
		Width:        width,
		Height:       height,
		Rotation:     [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// CheckValid checks if the fields for CameraCalibration have valid inputs.
func (c CameraCalibration) CheckValid() error {
	if c.Width <= 0 || c.Height <= 0 {
		return NewGeometryError("invalid size (%d, %d)", c.Width, c.Height)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !utils.IsFinite(c.CameraMatrix[i][j]) || !utils.IsFinite(c.Rotation[i][j]) {
				return NewGeometryError("calibration contains non-finite values")
			}
		}
		if !utils.IsFinite(c.Location[i]) {
			return NewGeometryError("calibration location contains non-finite values")
		}
	}
	for _, d := range c.Distortion {
		if !utils.IsFinite(d) {
			return NewGeometryError("calibration distortion contains non-finite values")
		}
	}
	if c.CameraMatrix[0][0] <= 0 {
		return NewGeometryError("invalid focal length fx = %v", c.CameraMatrix[0][0])
	}
	if c.CameraMatrix[1][1] <= 0 {
		return NewGeometryError("invalid focal length fy = %v", c.CameraMatrix[1][1])
	}
	if c.CameraMatrix[2] != [3]float64{0, 0, 1} {
		return NewGeometryError("camera matrix last row must be (0, 0, 1), got %v", c.CameraMatrix[2])
	}
	if !isRotation(c.RotationMatrix(), rotationTolerance) {
		return NewGeometryError("rotation is not orthonormal with determinant +1")
	}
	return nil
}

func (c CameraCalibration) String() string {
	return fmt.Sprintf("%dx%d f=(%.2f, %.2f) c=(%.2f, %.2f)", c.Width, c.Height,
		c.CameraMatrix[0][0], c.CameraMatrix[1][1], c.CameraMatrix[0][2], c.CameraMatrix[1][2])
}

// Size returns the image resolution.
func (c CameraCalibration) Size() image.Point {
	return image.Point{c.Width, c.Height}
}

// FocalLength returns (fx, fy).
func (c CameraCalibration) FocalLength() r2.Point {
	return r2.Point{X: c.CameraMatrix[0][0], Y: c.CameraMatrix[1][1]}
}

// PrincipalPoint returns (cx, cy).
func (c CameraCalibration) PrincipalPoint() r2.Point {
	return r2.Point{X: c.CameraMatrix[0][2], Y: c.CameraMatrix[1][2]}
}

func (c CameraCalibration) Matrix() *mat.Dense {
	return denseFromArray(c.CameraMatrix)
}

func (c CameraCalibration) RotationMatrix() *mat.Dense {
	return denseFromArray(c.Rotation)
}

func (c CameraCalibration) LocationVector() r3.Vector {
	return vectorFromArray(c.Location)
}

// Distorter returns the lens model of the camera.
func (c CameraCalibration) Distorter() Distorter {
	return &BrownConrady{
		RadialK1:     c.Distortion[0],
		RadialK2:     c.Distortion[1],
		TangentialP1: c.Distortion[2],
		TangentialP2: c.Distortion[3],
		RadialK3:     c.Distortion[4],
	}
}

// PixelToPoint back-projects an undistorted pixel with depth z to camera coordinates, taking
// the skew term of the camera matrix into account.
func (c CameraCalibration) PixelToPoint(u, v, z float64) r3.Vector {
	fx, fy := c.CameraMatrix[0][0], c.CameraMatrix[1][1]
	cx, cy := c.CameraMatrix[0][2], c.CameraMatrix[1][2]
	skew := c.CameraMatrix[0][1]
	y := (v - cy) / fy
	x := (u - cx - skew*y) / fx
	return r3.Vector{X: x * z, Y: y * z, Z: z}
}

// PointToPixel projects a point in camera coordinates through the lens model. ok is false for
// points on or behind the image plane.
func (c CameraCalibration) PointToPixel(p r3.Vector) (px r2.Point, ok bool) {
	if p.Z <= 0 {
		return r2.Point{X: -1, Y: -1}, false
	}
	x, y := c.Distorter().Transform(p.X/p.Z, p.Y/p.Z)
	return c.project(x, y), true
}

func (c CameraCalibration) project(x, y float64) r2.Point {
	k := c.CameraMatrix
	return r2.Point{X: k[0][0]*x + k[0][1]*y + k[0][2], Y: k[1][1]*y + k[1][2]}
}

func (c CameraCalibration) normalize(px r2.Point) r2.Point {
	k := c.CameraMatrix
	y := (px.Y - k[1][2]) / k[1][1]
	x := (px.X - k[0][2] - k[0][1]*y) / k[0][0]
	return r2.Point{X: x, Y: y}
}

// RelativePose returns the pose of the second camera relative to the first, x_2 = R*x_1 + T.
func RelativePose(calibrations utils.Pair[CameraCalibration]) (*mat.Dense, r3.Vector) {
	rot1 := calibrations.First.RotationMatrix()
	rot2 := calibrations.Second.RotationMatrix()
	r := mulDense(rot2, rot1.T())
	t := calibrations.Second.LocationVector().Sub(applyMatrix(r, calibrations.First.LocationVector()))
	return r, t
}

// Baseline is the distance between the optical centres of the cameras.
func Baseline(calibrations utils.Pair[CameraCalibration]) float64 {
	_, t := RelativePose(calibrations)
	return t.Norm()
}

// checkStereoCalibrations validates both calibrations and the baseline between them.
func checkStereoCalibrations(calibrations utils.Pair[CameraCalibration]) error {
	if err := calibrations.First.CheckValid(); err != nil {
		return err
	}
	if err := calibrations.Second.CheckValid(); err != nil {
		return err
	}
	if baseline := Baseline(calibrations); !(baseline > minBaseline) {
		return NewGeometryError("degenerate baseline %v", baseline)
	}
	return nil
}

func isFinitePoint(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
