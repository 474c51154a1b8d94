package factor

import (
	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// CostFunction is a residual block over one SE3 parameter block.
//
// Evaluate computes the residual at FromParams(params)∘exp(delta). A nil
// delta means zero. When jacobian is non-nil it receives the row-major
// NumResiduals×6 derivative of the residual with respect to delta. The
// return value reports whether the buffers had the expected sizes; it does
// not report on the geometry, and non-finite residuals are returned as-is.
type CostFunction interface {
	NumResiduals() int
	Evaluate(params, delta, residuals, jacobian []float64) bool
}

// maxResiduals bounds the residual size of every factor in this package.
const maxResiduals = se3.DoF

type (
	floatFunc func(x se3.Transform[se3.Float], out []se3.Float)
	dualFunc  func(x se3.Transform[se3.Dual], out []se3.Dual)
)

// evaluate runs one factor's residual through the value path, or through
// six forward-mode passes when a Jacobian is requested.
func evaluate(n int, params, delta, residuals, jacobian []float64, valueFn floatFunc, dualFn dualFunc) bool {
	if len(params) != se3.NumParameters || len(residuals) != n {
		return false
	}
	if delta != nil && len(delta) != se3.DoF {
		return false
	}
	if jacobian != nil && len(jacobian) != n*se3.DoF {
		return false
	}

	var d [se3.DoF]float64
	copy(d[:], delta)
	x := se3.FromParams(params)

	if jacobian == nil {
		var out [maxResiduals]se3.Float
		valueFn(se3.Retract(x, se3.LiftTangent[se3.Float](d)), out[:n])
		for i := 0; i < n; i++ {
			residuals[i] = float64(out[i])
		}
		return true
	}

	xd := se3.Cast[se3.Dual](x)
	var out [maxResiduals]se3.Dual
	for k := 0; k < se3.DoF; k++ {
		var dk se3.Tangent[se3.Dual]
		for i := range dk {
			dk[i] = se3.Dual{Real: d[i]}
		}
		dk[k].Emag = 1
		dualFn(se3.Retract(xd, dk), out[:n])
		for i := 0; i < n; i++ {
			jacobian[i*se3.DoF+k] = out[i].Emag
			if k == 0 {
				residuals[i] = out[i].Real
			}
		}
	}
	return true
}
