package l2frames

import (
	"math"
	"time"
)

// Sweep describes one rotation of the sensor so individual returns can be
// placed in time relative to it.
type Sweep struct {
	// StartAzimuth is the azimuth in degrees at which the rotation began.
	StartAzimuth float64 `json:"start_azimuth_deg"`
	// Clockwise is true when azimuth decreases during the rotation.
	Clockwise bool `json:"clockwise,omitempty"`
	// StartNanos and EndNanos bound the rotation in time. They are only
	// used by TimeFraction.
	StartNanos int64 `json:"start_nanos,omitempty"`
	EndNanos   int64 `json:"end_nanos,omitempty"`
}

// AzimuthFraction returns how far through the rotation a return at azimuth
// (degrees) was captured, in [0, 1). The azimuth is wrapped relative to
// StartAzimuth, so a rotation that crosses 0° is handled.
func (s Sweep) AzimuthFraction(azimuth float64) float64 {
	swept := azimuth - s.StartAzimuth
	if s.Clockwise {
		swept = -swept
	}
	return wrapDegrees(swept) / 360
}

// TimeFraction returns (ts − start)/(end − start) clamped to [0, 1]. A
// sweep with no duration yields 1, treating every return as captured at the
// end of the rotation.
func (s Sweep) TimeFraction(ts int64) float64 {
	span := s.EndNanos - s.StartNanos
	if span <= 0 {
		return 1
	}
	f := float64(ts-s.StartNanos) / float64(span)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// WithPeriod returns s with EndNanos set to StartNanos + period when the
// sweep carries no end time of its own.
func (s Sweep) WithPeriod(period time.Duration) Sweep {
	if s.EndNanos <= s.StartNanos && period > 0 {
		s.EndNanos = s.StartNanos + period.Nanoseconds()
	}
	return s
}

// wrapDegrees maps d into [0, 360).
func wrapDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	// a tiny negative remainder rounds up to 360 when shifted
	if d >= 360 {
		d = 0
	}
	return d
}
