package se3

import (
	"math"
	"testing"
)

func TestDualArithmetic(t *testing.T) {
	x := Dual{Real: 0.7, Emag: 1}
	c := Dual{Real: 2}

	tests := []struct {
		name      string
		got       Dual
		wantValue float64
		wantDeriv float64
	}{
		{"add", x.Add(c), 2.7, 1},
		{"sub", c.Sub(x), 1.3, -1},
		{"mul", x.Mul(x), 0.49, 1.4},
		{"div", c.Div(x), 2 / 0.7, -2 / (0.7 * 0.7)},
		{"neg", x.Neg(), -0.7, -1},
		{"scale", x.Scale(3), 2.1, 3},
		{"sqrt", x.Sqrt(), math.Sqrt(0.7), 0.5 / math.Sqrt(0.7)},
		{"sin", x.Sin(), math.Sin(0.7), math.Cos(0.7)},
		{"cos", x.Cos(), math.Cos(0.7), -math.Sin(0.7)},
		{"atan2 y", x.Atan2(c), math.Atan2(0.7, 2), 2 / (4 + 0.49)},
		{"atan2 x", c.Atan2(x), math.Atan2(2, 0.7), -2 / (4 + 0.49)},
	}
	for _, tt := range tests {
		if math.Abs(tt.got.Real-tt.wantValue) > 1e-12 {
			t.Errorf("%s: value = %v, want %v", tt.name, tt.got.Real, tt.wantValue)
		}
		if math.Abs(tt.got.Emag-tt.wantDeriv) > 1e-12 {
			t.Errorf("%s: derivative = %v, want %v", tt.name, tt.got.Emag, tt.wantDeriv)
		}
	}
}

func TestFloatMatchesDualValue(t *testing.T) {
	f := Float(1.3)
	d := Dual{Real: 1.3}
	pairs := []struct {
		name string
		f    Float
		d    Dual
	}{
		{"sqrt", f.Sqrt(), d.Sqrt()},
		{"sin", f.Sin(), d.Sin()},
		{"cos", f.Cos(), d.Cos()},
		{"atan2", f.Atan2(Float(-0.4)), d.Atan2(Dual{Real: -0.4})},
		{"div", f.Div(Float(0.3)), d.Div(Dual{Real: 0.3})},
	}
	for _, p := range pairs {
		if math.Abs(p.f.Value()-p.d.Value()) > 1e-14 {
			t.Errorf("%s: Float %v != Dual %v", p.name, p.f.Value(), p.d.Value())
		}
	}
}

func TestLiftIgnoresReceiver(t *testing.T) {
	if got := lift[Dual](3); got != (Dual{Real: 3}) {
		t.Errorf("lift[Dual](3) = %v", got)
	}
	if got := Float(9).Lift(2); got != 2 {
		t.Errorf("Float.Lift = %v, want 2", got)
	}
}
