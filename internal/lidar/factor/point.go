package factor

import (
	"github.com/golang/geo/r3"

	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// Point2Point pulls a scan point onto its matched reference point.
// Residual (3): T·p − q.
type Point2Point struct {
	curr, target r3.Vector
}

var _ CostFunction = Point2Point{}

// NewPoint2Point captures the current-frame point p and its match q.
func NewPoint2Point(p, q r3.Vector) Point2Point {
	return Point2Point{curr: p, target: q}
}

func (Point2Point) NumResiduals() int { return 3 }

func (f Point2Point) Evaluate(params, delta, residuals, jacobian []float64) bool {
	return evaluate(3, params, delta, residuals, jacobian,
		func(x se3.Transform[se3.Float], out []se3.Float) { Point2PointResidual(f, x, out) },
		func(x se3.Transform[se3.Dual], out []se3.Dual) { Point2PointResidual(f, x, out) })
}

// Point2PointResidual writes the three residuals of f at x into out.
func Point2PointResidual[T se3.Scalar[T]](f Point2Point, x se3.Transform[T], out []T) {
	d := x.ActVector(f.curr).Sub(se3.LiftVector[T](f.target))
	out[0], out[1], out[2] = d.X, d.Y, d.Z
}
