package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/scanmatch/internal/lidar/factor"
	"github.com/banshee-data/scanmatch/internal/lidar/se3"
	"github.com/banshee-data/scanmatch/internal/monitoring"
)

var (
	// ErrNoResiduals is returned when a problem has no usable residual
	// blocks, either because none were added or all were non-finite.
	ErrNoResiduals = errors.New("no usable residual blocks")
	// ErrSingularSystem is returned when the undamped normal equations
	// cannot be solved.
	ErrSingularSystem = errors.New("singular normal equations")
	// ErrBadBlock is returned when a residual block rejects its buffers.
	ErrBadBlock = errors.New("residual block rejected its buffers")
)

const (
	maxLambda = 1e16
	minLambda = 1e-12
	// minDiagonal keeps damping effective along directions no residual
	// constrains.
	minDiagonal = 1e-6
)

// Termination says why a solve stopped.
type Termination string

const (
	FunctionToleranceReached  Termination = "function_tolerance"
	ParameterToleranceReached Termination = "parameter_tolerance"
	GradientToleranceReached  Termination = "gradient_tolerance"
	MaxIterationsReached      Termination = "max_iterations"
	NoProgress                Termination = "no_progress"
)

// Converged reports whether a tolerance was met.
func (t Termination) Converged() bool {
	switch t {
	case FunctionToleranceReached, ParameterToleranceReached, GradientToleranceReached:
		return true
	}
	return false
}

// Summary describes a finished solve.
type Summary struct {
	Params      [se3.NumParameters]float64
	Iterations  int
	InitialCost float64
	FinalCost   float64
	Termination Termination
	// UsedResiduals and RejectedResiduals count blocks at the final
	// estimate; rejected blocks had non-finite residuals or Jacobians.
	UsedResiduals     int
	RejectedResiduals int
}

// Transform returns the solved pose.
func (s Summary) Transform() se3.Pose { return se3.FromParams(s.Params[:]) }

type block struct {
	cost factor.CostFunction
	loss Loss
}

// Problem collects residual blocks over one SE3 parameter block.
type Problem struct {
	opts     Options
	blocks   []block
	manifold se3.LocalParameterization
}

// NewProblem returns an empty problem solved with opts.
func NewProblem(opts Options) *Problem {
	return &Problem{opts: opts}
}

// AddResidual adds a cost term. A nil loss means TrivialLoss.
func (p *Problem) AddResidual(cost factor.CostFunction, loss Loss) {
	if loss == nil {
		loss = TrivialLoss{}
	}
	p.blocks = append(p.blocks, block{cost: cost, loss: loss})
}

// NumResidualBlocks returns how many blocks were added.
func (p *Problem) NumResidualBlocks() int { return len(p.blocks) }

// linearization is the reduced normal-equation system at one estimate.
type linearization struct {
	cost     float64
	h        [se3.DoF * se3.DoF]float64
	g        [se3.DoF]float64
	used     int
	rejected int
}

func (l *linearization) merge(o *linearization) {
	l.cost += o.cost
	floats.Add(l.h[:], o.h[:])
	floats.Add(l.g[:], o.g[:])
	l.used += o.used
	l.rejected += o.rejected
}

// accumulate adds one block's weighted contribution. It reports false when
// the block produced non-finite values.
func (l *linearization) accumulate(r, jac []float64, loss Loss) bool {
	for _, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range jac {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	rho, w := loss.Evaluate(floats.Dot(r, r))
	l.cost += 0.5 * rho
	n := len(r)
	for a := 0; a < se3.DoF; a++ {
		for i := 0; i < n; i++ {
			l.g[a] += w * jac[i*se3.DoF+a] * r[i]
		}
		for b := a; b < se3.DoF; b++ {
			var s float64
			for i := 0; i < n; i++ {
				s += jac[i*se3.DoF+a] * jac[i*se3.DoF+b]
			}
			l.h[a*se3.DoF+b] += w * s
		}
	}
	return true
}

// linearize evaluates every block at x, splitting the blocks across
// workers that each own one partial linearization.
func (p *Problem) linearize(ctx context.Context, x []float64) (*linearization, error) {
	workers := min(p.opts.workers(), len(p.blocks))
	parts := make([]linearization, workers)
	chunk := (len(p.blocks) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(p.blocks))
		part := &parts[w]
		g.Go(func() error {
			var r [se3.DoF]float64
			var jac [se3.DoF * se3.DoF]float64
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := p.blocks[i]
				n := b.cost.NumResiduals()
				if !b.cost.Evaluate(x, nil, r[:n], jac[:n*se3.DoF]) {
					return fmt.Errorf("block %d: %w", i, ErrBadBlock)
				}
				if part.accumulate(r[:n], jac[:n*se3.DoF], b.loss) {
					part.used++
				} else {
					part.rejected++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &parts[0]
	for i := 1; i < len(parts); i++ {
		total.merge(&parts[i])
	}
	// mirror the upper triangle
	for a := 0; a < se3.DoF; a++ {
		for b := 0; b < a; b++ {
			total.h[a*se3.DoF+b] = total.h[b*se3.DoF+a]
		}
	}
	if total.used == 0 {
		return nil, fmt.Errorf("%w: all %d blocks are non-finite", ErrNoResiduals, total.rejected)
	}
	return total, nil
}

// step solves (H + λ·D)·δ = −g with D the clamped diagonal of H.
func step(l *linearization, lambda float64) ([]float64, error) {
	a := l.h
	for i := 0; i < se3.DoF; i++ {
		a[i*se3.DoF+i] += lambda * math.Max(l.h[i*se3.DoF+i], minDiagonal)
	}
	var chol mat.Cholesky
	if !chol.Factorize(mat.NewSymDense(se3.DoF, a[:])) {
		return nil, ErrSingularSystem
	}
	neg := make([]float64, se3.DoF)
	floats.ScaleTo(neg, -1, l.g[:])
	var d mat.VecDense
	if err := chol.SolveVecTo(&d, mat.NewVecDense(se3.DoF, neg)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}
	return d.RawVector().Data, nil
}

// Solve minimises the total cost starting from initial, a parameter block
// [qx, qy, qz, qw, tx, ty, tz]. It returns a summary even when the
// iteration limit is reached; errors are reserved for unusable problems
// and cancellation.
func (p *Problem) Solve(ctx context.Context, initial []float64) (Summary, error) {
	var sum Summary
	if err := p.opts.Validate(); err != nil {
		return sum, fmt.Errorf("invalid solver options: %w", err)
	}
	if len(initial) != se3.NumParameters {
		return sum, fmt.Errorf("initial parameters have length %d, want %d", len(initial), se3.NumParameters)
	}
	if len(p.blocks) == 0 {
		return sum, ErrNoResiduals
	}

	x := append([]float64(nil), initial...)
	cur, err := p.linearize(ctx, x)
	if err != nil {
		return sum, err
	}
	sum.InitialCost = cur.cost

	lambda := p.opts.InitialLambda
	if p.opts.GaussNewton {
		lambda = 0
	}
	next := make([]float64, se3.NumParameters)
	sum.Termination = MaxIterationsReached

	for sum.Iterations < p.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("solve interrupted after %d iterations: %w", sum.Iterations, err)
		}
		if floats.Norm(cur.g[:], math.Inf(1)) <= p.opts.GradientTolerance {
			sum.Termination = GradientToleranceReached
			break
		}
		sum.Iterations++

		delta, err := step(cur, lambda)
		if err != nil {
			if p.opts.GaussNewton {
				return sum, err
			}
			lambda *= 10
			if lambda > maxLambda {
				sum.Termination = NoProgress
				break
			}
			continue
		}

		stepNorm := floats.Norm(delta, 2)
		if stepNorm <= p.opts.ParameterTolerance*(floats.Norm(x, 2)+p.opts.ParameterTolerance) {
			sum.Termination = ParameterToleranceReached
			break
		}

		p.manifold.Plus(x, delta, next)
		cand, err := p.linearize(ctx, next)
		if err != nil && !errors.Is(err, ErrNoResiduals) {
			return sum, err
		}

		accepted := cand != nil && (p.opts.GaussNewton || cand.cost < cur.cost)
		if p.opts.Verbose {
			candCost := math.Inf(1)
			if cand != nil {
				candCost = cand.cost
			}
			monitoring.Logf("solver: iter %d cost %.6g -> %.6g |step| %.3g lambda %.3g accepted=%t",
				sum.Iterations, cur.cost, candCost, stepNorm, lambda, accepted)
		}
		if !accepted {
			if p.opts.GaussNewton {
				return sum, err
			}
			lambda *= 10
			if lambda > maxLambda {
				sum.Termination = NoProgress
				break
			}
			continue
		}

		decrease := cur.cost - cand.cost
		copy(x, next)
		prev := cur.cost
		cur = cand
		if !p.opts.GaussNewton {
			lambda = math.Max(lambda/10, minLambda)
		}
		if math.Abs(decrease) <= p.opts.FunctionTolerance*prev {
			sum.Termination = FunctionToleranceReached
			break
		}
	}

	copy(sum.Params[:], x)
	sum.FinalCost = cur.cost
	sum.UsedResiduals = cur.used
	sum.RejectedResiduals = cur.rejected
	return sum, nil
}
