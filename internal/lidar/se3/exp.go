package se3

// smallAngleSq is the squared rotation angle below which the trigonometric
// coefficients of Exp and Log switch to their Taylor series. The branch is
// taken on θ² so no square root of zero is ever differentiated.
const smallAngleSq = 1e-6

// Tangent is an element of se3: [ωx, ωy, ωz, υx, υy, υz].
type Tangent[T Scalar[T]] [DoF]T

// Omega returns the rotational part.
func (v Tangent[T]) Omega() Vec3[T] { return Vec3[T]{X: v[0], Y: v[1], Z: v[2]} }

// Upsilon returns the translational part.
func (v Tangent[T]) Upsilon() Vec3[T] { return Vec3[T]{X: v[3], Y: v[4], Z: v[5]} }

// Scale multiplies every component by f.
func (v Tangent[T]) Scale(f float64) Tangent[T] {
	var out Tangent[T]
	for i := range v {
		out[i] = v[i].Scale(f)
	}
	return out
}

// TangentOf assembles a tangent vector from its rotational and
// translational parts.
func TangentOf[T Scalar[T]](omega, upsilon Vec3[T]) Tangent[T] {
	return Tangent[T]{omega.X, omega.Y, omega.Z, upsilon.X, upsilon.Y, upsilon.Z}
}

// LiftTangent lifts plain values into a constant tangent vector.
func LiftTangent[T Scalar[T]](v [DoF]float64) Tangent[T] {
	var out Tangent[T]
	for i := range v {
		out[i] = lift[T](v[i])
	}
	return out
}

// Values returns the plain numeric components.
func (v Tangent[T]) Values() [DoF]float64 {
	var out [DoF]float64
	for i := range v {
		out[i] = v[i].Value()
	}
	return out
}

// expSO3 returns the unit quaternion of rotation vector w and θ² = |w|².
func expSO3[T Scalar[T]](w Vec3[T]) (Quat[T], T) {
	theta2 := w.SquaredNorm()
	var re, im T
	if theta2.Value() < smallAngleSq {
		theta4 := theta2.Mul(theta2)
		re = lift[T](1).Sub(theta2.Scale(1.0 / 8)).Add(theta4.Scale(1.0 / 384))
		im = lift[T](0.5).Sub(theta2.Scale(1.0 / 48)).Add(theta4.Scale(1.0 / 3840))
	} else {
		theta := theta2.Sqrt()
		half := theta.Scale(0.5)
		re = half.Cos()
		im = half.Sin().Div(theta)
	}
	return Quat[T]{X: w.X.Mul(im), Y: w.Y.Mul(im), Z: w.Z.Mul(im), W: re}, theta2
}

// logSO3 returns the rotation vector of a unit quaternion, with angle in
// [-π, π].
func logSO3[T Scalar[T]](q Quat[T]) Vec3[T] {
	v := q.imag()
	n2 := v.SquaredNorm()
	w := q.W
	var k T // 2·atan(n/w)/n
	if n2.Value() < smallAngleSq {
		// 2/w·(1 − (n/w)²/3 + (n/w)⁴/5)
		invW := lift[T](1).Div(w)
		r2 := n2.Mul(invW).Mul(invW)
		k = invW.Scale(2).Mul(lift[T](1).Sub(r2.Scale(1.0 / 3)).Add(r2.Mul(r2).Scale(1.0 / 5)))
	} else {
		n := n2.Sqrt()
		var a T
		if w.Value() < 0 {
			// q and −q are the same rotation; keep the shorter angle.
			a = n.Neg().Atan2(w.Neg())
		} else {
			a = n.Atan2(w)
		}
		k = a.Scale(2).Div(n)
	}
	return v.Mul(k)
}

// Exp maps a tangent vector to SE3.
//
//	R = exp(ω^),  t = V·υ,  V = I + b·ω^ + c·ω^²
//	b = (1 − cos θ)/θ²,  c = (θ − sin θ)/θ³
func Exp[T Scalar[T]](v Tangent[T]) Transform[T] {
	w, u := v.Omega(), v.Upsilon()
	q, theta2 := expSO3(w)
	var b, c T
	if theta2.Value() < smallAngleSq {
		theta4 := theta2.Mul(theta2)
		b = lift[T](0.5).Sub(theta2.Scale(1.0 / 24)).Add(theta4.Scale(1.0 / 720))
		c = lift[T](1.0 / 6).Sub(theta2.Scale(1.0 / 120)).Add(theta4.Scale(1.0 / 5040))
	} else {
		theta := theta2.Sqrt()
		b = lift[T](1).Sub(theta.Cos()).Div(theta2)
		c = theta.Sub(theta.Sin()).Div(theta2.Mul(theta))
	}
	wu := w.Cross(u)
	t := u.Add(wu.Mul(b)).Add(w.Cross(wu).Mul(c))
	return Transform[T]{Rot: q, Trans: t}
}

// Log maps a transform to its tangent vector, the inverse of Exp for
// rotation angles in [0, π).
//
//	ω = log(R),  υ = V⁻¹·t,  V⁻¹ = I − ½·ω^ + c·ω^²
//	c = (1 − (θ/2)·cot(θ/2))/θ²
func Log[T Scalar[T]](a Transform[T]) Tangent[T] {
	w := logSO3(a.Rot)
	theta2 := w.SquaredNorm()
	var c T
	if theta2.Value() < smallAngleSq {
		theta4 := theta2.Mul(theta2)
		c = lift[T](1.0 / 12).Add(theta2.Scale(1.0 / 720)).Add(theta4.Scale(1.0 / 30240))
	} else {
		theta := theta2.Sqrt()
		half := theta.Scale(0.5)
		c = lift[T](1).Sub(half.Mul(half.Cos()).Div(half.Sin())).Div(theta2)
	}
	t := a.Trans
	wt := w.Cross(t)
	u := t.Sub(wt.Scale(0.5)).Add(w.Cross(wt).Mul(c))
	return TangentOf(w, u)
}

// Interpolate walks the geodesic from a to b and returns the transform at
// fraction s: a∘exp(s·log(a⁻¹∘b)). s outside [0, 1] extrapolates.
func Interpolate[T Scalar[T]](a, b Transform[T], s float64) Transform[T] {
	switch s {
	case 0:
		return a
	case 1:
		return b
	}
	return Compose(a, Exp(Log(Compose(Inverse(a), b)).Scale(s)))
}

// AngleOf returns the rotation angle of a in radians, in [0, π].
func AngleOf[T Scalar[T]](a Transform[T]) float64 {
	return logSO3(a.Rot).Vector().Norm()
}
