// Package solver is a small Levenberg–Marquardt solver for a single SE3
// parameter block.
//
// Responsibilities: evaluating residual blocks around the current estimate,
// dropping blocks whose residuals or Jacobians are not finite, applying a
// robust loss, solving the damped 6×6 normal equations and retracting the
// step back onto the manifold.
// Key types: Options, Problem, Loss, Summary.
//
// Residual blocks are evaluated concurrently by up to Options.Workers
// goroutines. Each worker accumulates into its own buffers; the reduction
// and the parameter update happen on the calling goroutine.
//
// Dependency rule: solver depends on factor and se3. It knows nothing about
// how correspondences were found.
package solver
