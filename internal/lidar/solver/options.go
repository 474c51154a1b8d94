package solver

import (
	"fmt"
	"runtime"
)

// Options controls a solve.
type Options struct {
	// MaxIterations bounds the number of attempted steps, accepted or not.
	MaxIterations int
	// FunctionTolerance stops the solve when an accepted step reduces the
	// cost by less than this fraction.
	FunctionTolerance float64
	// ParameterTolerance stops the solve when the step norm falls below
	// this fraction of the parameter norm.
	ParameterTolerance float64
	// GradientTolerance stops the solve when the max-norm of the gradient
	// falls below it.
	GradientTolerance float64
	// InitialLambda is the starting Levenberg–Marquardt damping.
	InitialLambda float64
	// GaussNewton disables damping and accepts every step.
	GaussNewton bool
	// Workers bounds concurrent residual evaluation. Zero means GOMAXPROCS.
	Workers int
	// Verbose logs one line per iteration through monitoring.Logf.
	Verbose bool
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxIterations:      50,
		FunctionTolerance:  1e-6,
		ParameterTolerance: 1e-8,
		GradientTolerance:  1e-10,
		InitialLambda:      1e-4,
	}
}

// Validate reports the first out-of-range option.
func (o Options) Validate() error {
	switch {
	case o.MaxIterations <= 0:
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	case o.FunctionTolerance < 0:
		return fmt.Errorf("function tolerance must be non-negative, got %g", o.FunctionTolerance)
	case o.ParameterTolerance < 0:
		return fmt.Errorf("parameter tolerance must be non-negative, got %g", o.ParameterTolerance)
	case o.GradientTolerance < 0:
		return fmt.Errorf("gradient tolerance must be non-negative, got %g", o.GradientTolerance)
	case !o.GaussNewton && o.InitialLambda <= 0:
		return fmt.Errorf("initial lambda must be positive, got %g", o.InitialLambda)
	case o.Workers < 0:
		return fmt.Errorf("workers must be non-negative, got %d", o.Workers)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
