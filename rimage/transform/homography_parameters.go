package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Homography is a 3x3 matrix (represented as a 2D array) used to transform a plane from the perspective of a 2D
// camera to the perspective of another 2D camera. Indices are [row][column].
type Homography [3][3]float64

// NewHomography copies a 3x3 matrix.
func NewHomography(m mat.Matrix) Homography {
	return Homography(arrayFromDense(m))
}

func (h *Homography) At(row, col int) float64 {
	return h[row][col]
}

// Matrix returns the homography as a dense matrix.
func (h *Homography) Matrix() *mat.Dense {
	return denseFromArray(*h)
}

// ApplyHomogeneous returns H·(x, y, 1) without the perspective division.
func (h *Homography) ApplyHomogeneous(pt r2.Point) r3.Vector {
	return r3.Vector{
		X: h[0][0]*pt.X + h[0][1]*pt.Y + h[0][2],
		Y: h[1][0]*pt.X + h[1][1]*pt.Y + h[1][2],
		Z: h[2][0]*pt.X + h[2][1]*pt.Y + h[2][2],
	}
}

// Apply maps pt through the homography. ok is false when the point maps to or behind the plane at
// infinity.
func (h *Homography) Apply(pt r2.Point) (r2.Point, bool) {
	q := h.ApplyHomogeneous(pt)
	if q.Z <= 0 {
		return r2.Point{}, false
	}
	return r2.Point{X: q.X / q.Z, Y: q.Y / q.Z}, true
}
