package se3

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// renormTolerance is the allowed drift of |q|² from 1 before a composed
// rotation is renormalized.
const renormTolerance = 1e-10

// Quat is a rotation quaternion with W as the real part.
type Quat[T Scalar[T]] struct {
	X, Y, Z, W T
}

// IdentityQuat returns the zero rotation.
func IdentityQuat[T Scalar[T]]() Quat[T] {
	return Quat[T]{X: lift[T](0), Y: lift[T](0), Z: lift[T](0), W: lift[T](1)}
}

// Mul is the Hamilton product q·o; applying the result rotates by o first.
func (q Quat[T]) Mul(o Quat[T]) Quat[T] {
	return Quat[T]{
		X: q.W.Mul(o.X).Add(q.X.Mul(o.W)).Add(q.Y.Mul(o.Z)).Sub(q.Z.Mul(o.Y)),
		Y: q.W.Mul(o.Y).Sub(q.X.Mul(o.Z)).Add(q.Y.Mul(o.W)).Add(q.Z.Mul(o.X)),
		Z: q.W.Mul(o.Z).Add(q.X.Mul(o.Y)).Sub(q.Y.Mul(o.X)).Add(q.Z.Mul(o.W)),
		W: q.W.Mul(o.W).Sub(q.X.Mul(o.X)).Sub(q.Y.Mul(o.Y)).Sub(q.Z.Mul(o.Z)),
	}
}

// Conj is the inverse of a unit quaternion.
func (q Quat[T]) Conj() Quat[T] {
	return Quat[T]{X: q.X.Neg(), Y: q.Y.Neg(), Z: q.Z.Neg(), W: q.W}
}

func (q Quat[T]) SquaredNorm() T {
	return q.X.Mul(q.X).Add(q.Y.Mul(q.Y)).Add(q.Z.Mul(q.Z)).Add(q.W.Mul(q.W))
}

// Normalize returns q scaled to unit length.
func (q Quat[T]) Normalize() Quat[T] {
	inv := lift[T](1).Div(q.SquaredNorm().Sqrt())
	return Quat[T]{X: q.X.Mul(inv), Y: q.Y.Mul(inv), Z: q.Z.Mul(inv), W: q.W.Mul(inv)}
}

// Rotate applies the rotation to v. q must be unit length.
//
//	v' = v + w·t + u×t,  t = 2·(u×v)
func (q Quat[T]) Rotate(v Vec3[T]) Vec3[T] {
	u := Vec3[T]{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}

func (q Quat[T]) imag() Vec3[T] {
	return Vec3[T]{X: q.X, Y: q.Y, Z: q.Z}
}

// keepUnit renormalizes q when accumulated round-off has pushed it away
// from unit length.
func keepUnit[T Scalar[T]](q Quat[T]) Quat[T] {
	if math.Abs(1-q.SquaredNorm().Value()) > renormTolerance {
		return q.Normalize()
	}
	return q
}

// QuatFromGonum converts a gonum quaternion (Real, Imag, Jmag, Kmag) into a
// Quat. The input is normalized.
func QuatFromGonum(q quat.Number) Quat[Float] {
	n := quat.Abs(q)
	q = quat.Scale(1/n, q)
	return Quat[Float]{X: Float(q.Imag), Y: Float(q.Jmag), Z: Float(q.Kmag), W: Float(q.Real)}
}

// GonumQuat returns the value of q as a gonum quaternion.
func GonumQuat[T Scalar[T]](q Quat[T]) quat.Number {
	return quat.Number{Real: q.W.Value(), Imag: q.X.Value(), Jmag: q.Y.Value(), Kmag: q.Z.Value()}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
// A zero axis yields the identity.
func QuatFromAxisAngle(axis [3]float64, angle float64) Quat[Float] {
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if n == 0 {
		return IdentityQuat[Float]()
	}
	h := angle / (2 * n)
	return QuatFromGonum(quat.Exp(quat.Number{Imag: axis[0] * h, Jmag: axis[1] * h, Kmag: axis[2] * h}))
}
