package se3

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

// Scalar is the arithmetic the manifold and the residual factors need.
// Implementations are value types; every method returns a new value.
type Scalar[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Scale(f float64) T
	Sqrt() T
	Sin() T
	Cos() T
	// Atan2 treats the receiver as y and the argument as x.
	Atan2(x T) T
	// Lift returns the constant v in the receiver's type. The receiver's
	// own value is ignored, so the zero value can be used.
	Lift(v float64) T
	// Value returns the plain numeric part.
	Value() float64
}

// lift returns the constant v as a T.
func lift[T Scalar[T]](v float64) T {
	var z T
	return z.Lift(v)
}

// Float is a plain float64 Scalar.
type Float float64

func (a Float) Add(b Float) Float { return a + b }
func (a Float) Sub(b Float) Float { return a - b }
func (a Float) Mul(b Float) Float { return a * b }
func (a Float) Div(b Float) Float { return a / b }
func (a Float) Neg() Float { return -a }
func (a Float) Scale(f float64) Float { return Float(f) * a }
func (a Float) Sqrt() Float { return Float(math.Sqrt(float64(a))) }
func (a Float) Sin() Float { return Float(math.Sin(float64(a))) }
func (a Float) Cos() Float { return Float(math.Cos(float64(a))) }
func (a Float) Atan2(x Float) Float { return Float(math.Atan2(float64(a), float64(x))) }
func (Float) Lift(v float64) Float { return Float(v) }
func (a Float) Value() float64 { return float64(a) }

// Dual is a forward-mode dual number: Real carries the value and Emag the
// derivative along one seeded direction.
type Dual dual.Number

func (a Dual) Add(b Dual) Dual { return Dual{Real: a.Real + b.Real, Emag: a.Emag + b.Emag} }
func (a Dual) Sub(b Dual) Dual { return Dual{Real: a.Real - b.Real, Emag: a.Emag - b.Emag} }
func (a Dual) Neg() Dual { return Dual{Real: -a.Real, Emag: -a.Emag} }

func (a Dual) Mul(b Dual) Dual {
	return Dual(dual.Mul(dual.Number(a), dual.Number(b)))
}

func (a Dual) Div(b Dual) Dual {
	return Dual(dual.Mul(dual.Number(a), dual.Inv(dual.Number(b))))
}

func (a Dual) Scale(f float64) Dual { return Dual(dual.Scale(f, dual.Number(a))) }
func (a Dual) Sqrt() Dual { return Dual(dual.Sqrt(dual.Number(a))) }
func (a Dual) Sin() Dual { return Dual(dual.Sin(dual.Number(a))) }
func (a Dual) Cos() Dual { return Dual(dual.Cos(dual.Number(a))) }

// Atan2 uses d/dt atan2(y, x) = (x·y' − y·x') / (x² + y²).
func (a Dual) Atan2(x Dual) Dual {
	r2 := x.Real*x.Real + a.Real*a.Real
	return Dual{
		Real: math.Atan2(a.Real, x.Real),
		Emag: (x.Real*a.Emag - a.Real*x.Emag) / r2,
	}
}

func (Dual) Lift(v float64) Dual { return Dual{Real: v} }
func (a Dual) Value() float64 { return a.Real }
