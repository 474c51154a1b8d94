package factor

import (
	"github.com/golang/geo/r3"

	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// Point2Line pulls a scan point onto the line through two reference
// points, undistorting it by the fraction s of the sweep motion first.
//
// Residual (3): ((p' − a) × (p' − b)) / ‖a − b‖ with
// p' = interpolate(I, T, s)·p. Only two components are independent; the
// vector form is kept because it is the conventional LOAM formulation.
// a == b divides by zero and must be rejected by the caller.
type Point2Line struct {
	curr, a, b r3.Vector
	s          float64
}

var _ CostFunction = Point2Line{}

// NewPoint2Line captures point p, line endpoints a and b, and fraction s.
func NewPoint2Line(p, a, b r3.Vector, s float64) Point2Line {
	return Point2Line{curr: p, a: a, b: b, s: s}
}

func (Point2Line) NumResiduals() int { return 3 }

func (f Point2Line) Evaluate(params, delta, residuals, jacobian []float64) bool {
	return evaluate(3, params, delta, residuals, jacobian,
		func(x se3.Transform[se3.Float], out []se3.Float) { Point2LineResidual(f, x, out) },
		func(x se3.Transform[se3.Dual], out []se3.Dual) { Point2LineResidual(f, x, out) })
}

// Point2LineResidual writes the three residuals of f at x into out.
func Point2LineResidual[T se3.Scalar[T]](f Point2Line, x se3.Transform[T], out []T) {
	ts := se3.Interpolate(se3.Identity[T](), x, f.s)
	p := ts.ActVector(f.curr)
	a := se3.LiftVector[T](f.a)
	b := se3.LiftVector[T](f.b)

	nu := p.Sub(a).Cross(p.Sub(b))
	de := a.Sub(b).Norm()

	out[0] = nu.X.Div(de)
	out[1] = nu.Y.Div(de)
	out[2] = nu.Z.Div(de)
}
