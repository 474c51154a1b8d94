// Package factor holds the residual factors of scan registration.
//
// Responsibilities: turning a correspondence (a point in the moving scan
// plus a reference point, line or plane, and optionally the fraction of the
// sweep at which the point was captured) into a cost term that a
// least-squares solver evaluates around the current transform estimate.
// Key types: CostFunction, Point2Point, Point2Line, Point2Plane,
// Point2PlaneNorm, Pose2Pose, Set.
//
// Factors are immutable values. Evaluation is pure, so any number of
// factors can be evaluated concurrently without synchronization.
// Degenerate geometry (a zero-length line, collinear plane points) is not
// rejected here: it surfaces as non-finite residuals.
//
// Dependency rule: factor depends on se3 and l2frames, never on a solver.
package factor
