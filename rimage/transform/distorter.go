package transform

// Distorter maps undistorted normalized image coordinates to distorted ones and back.
type Distorter interface {
	Transform(x, y float64) (float64, float64)
	Undistort(x, y float64) (float64, float64)
}

var _ Distorter = (*BrownConrady)(nil)
