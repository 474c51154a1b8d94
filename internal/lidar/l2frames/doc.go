// Package l2frames owns Layer 2 (Frames) of the LiDAR data model as seen by
// scan registration.
//
// Responsibilities: coordinate geometry (polar ↔ Cartesian) and sweep
// timing, i.e. where inside one rotation a return was captured. That
// position is the fraction s the distortion-compensating factors use to
// interpolate the frame-to-frame motion.
// Key types: Sweep.
//
// Dependency rule: L2 depends on no other lidar layer.
package l2frames
