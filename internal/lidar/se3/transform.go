package se3

import "github.com/golang/geo/r3"

const (
	// NumParameters is the length of the stored parameter block.
	NumParameters = 7
	// DoF is the dimension of the tangent space.
	DoF = 6
)

// Transform is an element of SE3: rotate by Rot, then translate by Trans.
type Transform[T Scalar[T]] struct {
	Rot   Quat[T]
	Trans Vec3[T]
}

// Pose is a Transform over plain float64 values.
type Pose = Transform[Float]

// Identity returns the identity transform.
func Identity[T Scalar[T]]() Transform[T] {
	return Transform[T]{Rot: IdentityQuat[T](), Trans: LiftVector[T](r3.Vector{})}
}

// NewPose builds a float transform from a rotation and a translation.
func NewPose(rot Quat[Float], trans r3.Vector) Pose {
	return Pose{Rot: keepUnit(rot), Trans: LiftVector[Float](trans)}
}

// Compose returns a∘b, the transform that applies b first and then a.
// Composition is not commutative.
func Compose[T Scalar[T]](a, b Transform[T]) Transform[T] {
	return Transform[T]{
		Rot:   keepUnit(a.Rot.Mul(b.Rot)),
		Trans: a.Trans.Add(a.Rot.Rotate(b.Trans)),
	}
}

// Inverse returns the group inverse of a.
func Inverse[T Scalar[T]](a Transform[T]) Transform[T] {
	inv := a.Rot.Conj()
	return Transform[T]{Rot: inv, Trans: inv.Rotate(a.Trans).Neg()}
}

// Act maps p through the transform: R·p + t.
func (a Transform[T]) Act(p Vec3[T]) Vec3[T] {
	return a.Rot.Rotate(p).Add(a.Trans)
}

// ActVector is Act for a constant float point.
func (a Transform[T]) ActVector(p r3.Vector) Vec3[T] {
	return a.Act(LiftVector[T](p))
}

// Cast lifts a float transform into another scalar type as a constant.
func Cast[T Scalar[T]](a Pose) Transform[T] {
	return Transform[T]{
		Rot: Quat[T]{
			X: lift[T](float64(a.Rot.X)),
			Y: lift[T](float64(a.Rot.Y)),
			Z: lift[T](float64(a.Rot.Z)),
			W: lift[T](float64(a.Rot.W)),
		},
		Trans: LiftVector[T](a.Trans.Vector()),
	}
}

// Value drops derivative parts and returns the plain transform.
func (a Transform[T]) Value() Pose {
	return Pose{
		Rot: Quat[Float]{
			X: Float(a.Rot.X.Value()),
			Y: Float(a.Rot.Y.Value()),
			Z: Float(a.Rot.Z.Value()),
			W: Float(a.Rot.W.Value()),
		},
		Trans: LiftVector[Float](a.Trans.Vector()),
	}
}

// FromParams decodes a parameter block [qx, qy, qz, qw, tx, ty, tz]. A
// quaternion that is not unit length, such as one rounded for storage, is
// normalized. It panics if p is shorter than NumParameters.
func FromParams(p []float64) Pose {
	_ = p[NumParameters-1]
	return Pose{
		Rot:   keepUnit(Quat[Float]{X: Float(p[0]), Y: Float(p[1]), Z: Float(p[2]), W: Float(p[3])}),
		Trans: Vec3[Float]{X: Float(p[4]), Y: Float(p[5]), Z: Float(p[6])},
	}
}

// Params encodes a into the parameter block layout.
func (a Transform[T]) Params() [NumParameters]float64 {
	return [NumParameters]float64{
		a.Rot.X.Value(), a.Rot.Y.Value(), a.Rot.Z.Value(), a.Rot.W.Value(),
		a.Trans.X.Value(), a.Trans.Y.Value(), a.Trans.Z.Value(),
	}
}

// Matrix returns the homogeneous 4x4 matrix in row-major order.
func (a Transform[T]) Matrix() [16]float64 {
	x, y, z, w := a.Rot.X.Value(), a.Rot.Y.Value(), a.Rot.Z.Value(), a.Rot.W.Value()
	return [16]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), a.Trans.X.Value(),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), a.Trans.Y.Value(),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), a.Trans.Z.Value(),
		0, 0, 0, 1,
	}
}
