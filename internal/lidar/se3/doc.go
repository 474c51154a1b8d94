// Package se3 implements the rigid-transform manifold used by scan
// registration.
//
// Responsibilities: the SE3 group (compose, inverse, point action), its
// exponential and logarithm maps, geodesic interpolation for scan
// distortion compensation, and the retraction (local parameterization)
// that lets a least-squares solver step in the 6-dimensional tangent space
// while the transform is stored as 7 numbers.
// Key types: Scalar, Float, Dual, Vec3, Quat, Transform, Tangent,
// LocalParameterization.
//
// Every operation is generic over Scalar so the same code path serves
// plain float64 evaluation (Float) and forward-mode automatic
// differentiation (Dual).
//
// Conventions:
//   - Parameter block: [qx, qy, qz, qw, tx, ty, tz].
//   - Tangent vector: [ωx, ωy, ωz, υx, υy, υz], rotation first.
//
// Dependency rule: se3 depends on no other internal package.
package se3
