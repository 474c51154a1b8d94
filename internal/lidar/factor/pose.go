package factor

import (
	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// Pose2Pose ties the relative transform T to two externally fixed absolute
// poses, for priors and loop closures.
//
// Residual (6): log(curr∘T∘last⁻¹), zero exactly when curr∘T = last.
type Pose2Pose struct {
	curr, last se3.Pose
}

var _ CostFunction = Pose2Pose{}

// NewPose2Pose captures the two absolute poses.
func NewPose2Pose(curr, last se3.Pose) Pose2Pose {
	return Pose2Pose{curr: curr, last: last}
}

func (Pose2Pose) NumResiduals() int { return se3.DoF }

func (f Pose2Pose) Evaluate(params, delta, residuals, jacobian []float64) bool {
	return evaluate(se3.DoF, params, delta, residuals, jacobian,
		func(x se3.Transform[se3.Float], out []se3.Float) { Pose2PoseResidual(f, x, out) },
		func(x se3.Transform[se3.Dual], out []se3.Dual) { Pose2PoseResidual(f, x, out) })
}

// Pose2PoseResidual writes the six tangent residuals of f at x into out.
func Pose2PoseResidual[T se3.Scalar[T]](f Pose2Pose, x se3.Transform[T], out []T) {
	curr := se3.Cast[T](f.curr)
	last := se3.Cast[T](f.last)
	v := se3.Log(se3.Compose(se3.Compose(curr, x), se3.Inverse(last)))
	copy(out, v[:])
}
