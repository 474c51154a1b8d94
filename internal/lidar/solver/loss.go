package solver

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownLoss is returned by NewLoss for an unrecognised name.
var ErrUnknownLoss = errors.New("unknown loss function")

// Loss is a robust loss ρ applied to the squared residual norm s of one
// block. Evaluate returns ρ(s) and ρ'(s); the latter is the weight the
// block receives in the normal equations.
type Loss interface {
	Evaluate(s float64) (rho, weight float64)
}

// TrivialLoss is ρ(s) = s, plain least squares.
type TrivialLoss struct{}

func (TrivialLoss) Evaluate(s float64) (float64, float64) { return s, 1 }

// HuberLoss is quadratic up to residual norm Scale and linear beyond it.
type HuberLoss struct {
	Scale float64
}

func (l HuberLoss) Evaluate(s float64) (float64, float64) {
	b := l.Scale * l.Scale
	if s <= b {
		return s, 1
	}
	r := math.Sqrt(s)
	return 2*l.Scale*r - b, l.Scale / r
}

// CauchyLoss is ρ(s) = b·log(1 + s/b) with b = Scale².
type CauchyLoss struct {
	Scale float64
}

func (l CauchyLoss) Evaluate(s float64) (float64, float64) {
	b := l.Scale * l.Scale
	return b * math.Log1p(s/b), 1 / (1 + s/b)
}

// NewLoss maps a configured name to a Loss. "" and "trivial" select
// TrivialLoss; "huber" and "cauchy" take a positive scale.
func NewLoss(name string, scale float64) (Loss, error) {
	switch name {
	case "", "trivial", "none":
		return TrivialLoss{}, nil
	case "huber", "cauchy":
		if !(scale > 0) {
			return nil, fmt.Errorf("%s loss needs a positive scale, got %g", name, scale)
		}
		if name == "huber" {
			return HuberLoss{Scale: scale}, nil
		}
		return CauchyLoss{Scale: scale}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLoss, name)
}
