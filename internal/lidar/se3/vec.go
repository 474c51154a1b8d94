package se3

import "github.com/golang/geo/r3"

// Vec3 is a 3-vector over any Scalar.
type Vec3[T Scalar[T]] struct {
	X, Y, Z T
}

// LiftVector converts a float geometry vector into a constant Vec3.
func LiftVector[T Scalar[T]](v r3.Vector) Vec3[T] {
	return Vec3[T]{X: lift[T](v.X), Y: lift[T](v.Y), Z: lift[T](v.Z)}
}

// Vector returns the plain value of v, dropping any derivative parts.
func (v Vec3[T]) Vector() r3.Vector {
	return r3.Vector{X: v.X.Value(), Y: v.Y.Value(), Z: v.Z.Value()}
}

func (v Vec3[T]) Add(o Vec3[T]) Vec3[T] {
	return Vec3[T]{X: v.X.Add(o.X), Y: v.Y.Add(o.Y), Z: v.Z.Add(o.Z)}
}

func (v Vec3[T]) Sub(o Vec3[T]) Vec3[T] {
	return Vec3[T]{X: v.X.Sub(o.X), Y: v.Y.Sub(o.Y), Z: v.Z.Sub(o.Z)}
}

// Mul scales v by a scalar of the same type.
func (v Vec3[T]) Mul(s T) Vec3[T] {
	return Vec3[T]{X: v.X.Mul(s), Y: v.Y.Mul(s), Z: v.Z.Mul(s)}
}

// Scale scales v by a float constant.
func (v Vec3[T]) Scale(f float64) Vec3[T] {
	return Vec3[T]{X: v.X.Scale(f), Y: v.Y.Scale(f), Z: v.Z.Scale(f)}
}

func (v Vec3[T]) Neg() Vec3[T] {
	return Vec3[T]{X: v.X.Neg(), Y: v.Y.Neg(), Z: v.Z.Neg()}
}

func (v Vec3[T]) Dot(o Vec3[T]) T {
	return v.X.Mul(o.X).Add(v.Y.Mul(o.Y)).Add(v.Z.Mul(o.Z))
}

func (v Vec3[T]) Cross(o Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: v.Y.Mul(o.Z).Sub(v.Z.Mul(o.Y)),
		Y: v.Z.Mul(o.X).Sub(v.X.Mul(o.Z)),
		Z: v.X.Mul(o.Y).Sub(v.Y.Mul(o.X)),
	}
}

// SquaredNorm is the squared Euclidean length; unlike Norm it is smooth at
// the origin.
func (v Vec3[T]) SquaredNorm() T { return v.Dot(v) }

func (v Vec3[T]) Norm() T { return v.Dot(v).Sqrt() }
