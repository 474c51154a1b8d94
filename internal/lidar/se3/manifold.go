package se3

// Manifold is the retraction contract a manifold-aware least-squares solver
// needs: it keeps the parameters in their GlobalSize representation and
// steps along LocalSize tangent directions.
type Manifold interface {
	GlobalSize() int
	LocalSize() int
	// Plus writes x ⊞ delta into xPlusDelta.
	Plus(x, delta, xPlusDelta []float64) bool
	// ComputeJacobian writes the row-major GlobalSize×LocalSize Jacobian
	// of Plus(x, ·) at delta = 0.
	ComputeJacobian(x, jacobian []float64) bool
}

// Retract is the SE3 plus operation x∘exp(delta).
func Retract[T Scalar[T]](x Transform[T], delta Tangent[T]) Transform[T] {
	return Compose(x, Exp(delta))
}

// LocalParameterization is the SE3 Manifold over the parameter block
// [qx, qy, qz, qw, tx, ty, tz] and tangent [ω, υ].
type LocalParameterization struct{}

var _ Manifold = LocalParameterization{}

func (LocalParameterization) GlobalSize() int { return NumParameters }
func (LocalParameterization) LocalSize() int { return DoF }

// Plus computes x∘exp(delta). Plus(x, 0) reproduces x exactly when x holds
// a unit quaternion.
func (LocalParameterization) Plus(x, delta, xPlusDelta []float64) bool {
	if len(x) != NumParameters || len(delta) != DoF || len(xPlusDelta) != NumParameters {
		return false
	}
	var d [DoF]float64
	copy(d[:], delta)
	out := Retract(FromParams(x), LiftTangent[Float](d)).Params()
	copy(xPlusDelta, out[:])
	return true
}

// ComputeJacobian writes d(x∘exp(δ))/dδ at δ = 0 as a 7×6 row-major matrix.
//
// Rows follow the parameter block and columns the tangent ordering. The
// quaternion rows only depend on ω: ∂q/∂ω = ½·L(q)[:, xyz] where L(q) is
// the left-multiplication matrix of q. The translation rows only depend on
// υ: ∂t/∂υ = R(q).
func (LocalParameterization) ComputeJacobian(x, jacobian []float64) bool {
	if len(x) != NumParameters || len(jacobian) != NumParameters*DoF {
		return false
	}
	for i := range jacobian {
		jacobian[i] = 0
	}
	qx, qy, qz, qw := x[0], x[1], x[2], x[3]
	set := func(r, c int, v float64) { jacobian[r*DoF+c] = v }

	set(0, 0, 0.5*qw)
	set(0, 1, -0.5*qz)
	set(0, 2, 0.5*qy)

	set(1, 0, 0.5*qz)
	set(1, 1, 0.5*qw)
	set(1, 2, -0.5*qx)

	set(2, 0, -0.5*qy)
	set(2, 1, 0.5*qx)
	set(2, 2, 0.5*qw)

	set(3, 0, -0.5*qx)
	set(3, 1, -0.5*qy)
	set(3, 2, -0.5*qz)

	m := FromParams(x).Matrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			set(4+r, 3+c, m[r*4+c])
		}
	}
	return true
}
