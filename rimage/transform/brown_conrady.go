package transform

import "github.com/pkg/errors"

const (
	undistortIterations = 20
	undistortTolerance  = 1e-10
)

// BrownConrady is the radial-tangential lens model on normalized image coordinates, using the
// OpenCV coefficient convention.
//
//	x_d = x*(1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y*(1 + k1*r² + k2*r⁴ + k3*r⁶) + p1*(r² + 2*y²) + 2*p2*x*y
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
	RadialK3     float64 `json:"rk3"`
}

// NewBrownConrady takes coefficients in OpenCV order k1, k2, p1, p2, k3. Missing trailing
// values are zero.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(inp))
	}
	var p [5]float64
	copy(p[:], inp)
	return &BrownConrady{p[0], p[1], p[2], p[3], p[4]}, nil
}

// Parameters returns the coefficients in OpenCV order.
func (bc *BrownConrady) Parameters() [5]float64 {
	return [5]float64{bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3}
}

// IsZero reports whether the model is the identity.
func (bc *BrownConrady) IsZero() bool {
	return bc.Parameters() == [5]float64{}
}

func (bc *BrownConrady) radial(r2 float64) float64 {
	return 1 + r2*(bc.RadialK1+r2*(bc.RadialK2+r2*bc.RadialK3))
}

// Transform distorts an undistorted normalized point.
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	rad := bc.radial(r2)
	xd := x*rad + 2*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2*x*x)
	yd := y*rad + bc.TangentialP1*(r2+2*y*y) + 2*bc.TangentialP2*x*y
	return xd, yd
}

// Undistort inverts Transform with Newton-Raphson iterations started at the distorted point.
func (bc *BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc == nil || bc.IsZero() {
		return xd, yd
	}
	k1, k2, k3 := bc.RadialK1, bc.RadialK2, bc.RadialK3
	p1, p2 := bc.TangentialP1, bc.TangentialP2

	x, y := xd, yd
	for i := 0; i < undistortIterations; i++ {
		ex, ey := bc.Transform(x, y)
		ex -= xd
		ey -= yd
		if ex*ex+ey*ey < undistortTolerance*undistortTolerance {
			break
		}

		r2 := x*x + y*y
		rad := bc.radial(r2)
		dRad := 2 * (k1 + 2*k2*r2 + 3*k3*r2*r2)

		jxx := rad + x*x*dRad + 2*p1*y + 6*p2*x
		jxy := x*y*dRad + 2*p1*x + 2*p2*y
		jyx := x*y*dRad + 2*p1*x + 2*p2*y
		jyy := rad + y*y*dRad + 6*p1*y + 2*p2*x

		det := jxx*jyy - jxy*jyx
		if det == 0 {
			break
		}
		x -= (jyy*ex - jxy*ey) / det
		y -= (-jyx*ex + jxx*ey) / det
	}
	return x, y
}
