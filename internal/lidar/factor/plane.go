package factor

import (
	"github.com/golang/geo/r3"

	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// Point2Plane pulls a scan point onto the plane through three reference
// points, undistorting it by the fraction s of the sweep motion first.
//
// Residual (1): n·(T_s·p − j), n = normalize((j − l) × (j − m)).
// The normal is computed once here; collinear points leave it undefined
// and the residual non-finite.
type Point2Plane struct {
	curr, j, normal r3.Vector
	s               float64
}

var _ CostFunction = Point2Plane{}

// NewPoint2Plane captures point p, plane points j, l, m, and fraction s.
func NewPoint2Plane(p, j, l, m r3.Vector, s float64) Point2Plane {
	n := j.Sub(l).Cross(j.Sub(m))
	return Point2Plane{
		curr:   p,
		j:      j,
		normal: n.Mul(1 / n.Norm()),
		s:      s,
	}
}

// Normal returns the unit plane normal.
func (f Point2Plane) Normal() r3.Vector { return f.normal }

func (Point2Plane) NumResiduals() int { return 1 }

func (f Point2Plane) Evaluate(params, delta, residuals, jacobian []float64) bool {
	return evaluate(1, params, delta, residuals, jacobian,
		func(x se3.Transform[se3.Float], out []se3.Float) { Point2PlaneResidual(f, x, out) },
		func(x se3.Transform[se3.Dual], out []se3.Dual) { Point2PlaneResidual(f, x, out) })
}

// Point2PlaneResidual writes the signed point-to-plane distance into out[0].
func Point2PlaneResidual[T se3.Scalar[T]](f Point2Plane, x se3.Transform[T], out []T) {
	ts := se3.Interpolate(se3.Identity[T](), x, f.s)
	p := ts.ActVector(f.curr)
	out[0] = p.Sub(se3.LiftVector[T](f.j)).Dot(se3.LiftVector[T](f.normal))
}

// Point2PlaneNorm matches a point against a plane given by unit normal n and
// offset d = −n·o for a point o on the plane. It is used against an
// accumulated map, so no sweep interpolation is applied.
//
// Residual (1): n·(T·p) + d.
type Point2PlaneNorm struct {
	curr, normal r3.Vector
	offset       float64
}

var _ CostFunction = Point2PlaneNorm{}

// NewPoint2PlaneNorm captures point p, unit normal n and offset d.
func NewPoint2PlaneNorm(p, n r3.Vector, d float64) Point2PlaneNorm {
	return Point2PlaneNorm{curr: p, normal: n, offset: d}
}

// PlaneOffset returns d = −n·o for the plane with normal n through o.
func PlaneOffset(n, o r3.Vector) float64 {
	return -n.Dot(o)
}

func (Point2PlaneNorm) NumResiduals() int { return 1 }

func (f Point2PlaneNorm) Evaluate(params, delta, residuals, jacobian []float64) bool {
	return evaluate(1, params, delta, residuals, jacobian,
		func(x se3.Transform[se3.Float], out []se3.Float) { Point2PlaneNormResidual(f, x, out) },
		func(x se3.Transform[se3.Dual], out []se3.Dual) { Point2PlaneNormResidual(f, x, out) })
}

// Point2PlaneNormResidual writes the signed distance into out[0].
func Point2PlaneNormResidual[T se3.Scalar[T]](f Point2PlaneNorm, x se3.Transform[T], out []T) {
	var z T
	p := x.ActVector(f.curr)
	out[0] = se3.LiftVector[T](f.normal).Dot(p).Add(z.Lift(f.offset))
}
