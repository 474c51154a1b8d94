package factor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/scanmatch/internal/lidar/l2frames"
	"github.com/banshee-data/scanmatch/internal/lidar/se3"
)

// Mode selects which correspondence kinds of a Set become cost terms. It
// replaces process-wide feature flags: callers pass it explicitly.
type Mode string

const (
	// ModeAll uses every correspondence in the set.
	ModeAll Mode = "all"
	// ModeLOAM uses edge lines and raw-point planes with sweep
	// interpolation, for scan-to-scan odometry.
	ModeLOAM Mode = "loam"
	// ModeLOAMMapping uses edge lines and normal+offset planes, for
	// scan-to-map refinement.
	ModeLOAMMapping Mode = "loam_mapping"
	// ModeICP uses point-to-point matches only.
	ModeICP Mode = "icp"
	// ModeICPNormal uses normal+offset planes only.
	ModeICPNormal Mode = "icpn"
)

// ParseMode validates a mode name. The empty string selects ModeAll.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAll, nil
	case ModeAll, ModeLOAM, ModeLOAMMapping, ModeICP, ModeICPNormal:
		return m, nil
	}
	return "", fmt.Errorf("unknown feature mode %q", s)
}

func (m Mode) uses(kind string) bool {
	switch m {
	case ModeLOAM:
		return kind == kindLine || kind == kindPlane
	case ModeLOAMMapping:
		return kind == kindLine || kind == kindPlaneNormal
	case ModeICP:
		return kind == kindPoint
	case ModeICPNormal:
		return kind == kindPlaneNormal
	}
	return true
}

const (
	kindPoint       = "point"
	kindLine        = "line"
	kindPlane       = "plane"
	kindPlaneNormal = "plane_normal"
)

// Vec is a JSON-friendly [x, y, z] triple.
type Vec [3]float64

func (v Vec) r3() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

// Timing locates a return inside the sweep. An explicit Fraction wins over
// a timestamp, which wins over an azimuth. Without any of them the return
// is placed by its own azimuth when the set asks for DeriveAzimuth, and at
// the sweep end otherwise.
type Timing struct {
	Fraction       *float64 `json:"fraction,omitempty"`
	TimestampNanos *int64   `json:"timestamp_ns,omitempty"`
	AzimuthDeg     *float64 `json:"azimuth_deg,omitempty"`
}

// PointCorrespondence matches a scan point to a reference point.
type PointCorrespondence struct {
	Point  Vec `json:"point"`
	Target Vec `json:"target"`
}

// LineCorrespondence matches a scan point to the line through A and B.
type LineCorrespondence struct {
	Point Vec `json:"point"`
	A     Vec `json:"a"`
	B     Vec `json:"b"`
	Timing
}

// PlaneCorrespondence matches a scan point to the plane through J, L, M.
type PlaneCorrespondence struct {
	Point Vec `json:"point"`
	J     Vec `json:"j"`
	L     Vec `json:"l"`
	M     Vec `json:"m"`
	Timing
}

// PlaneNormalCorrespondence matches a scan point to the plane n·x + d = 0.
type PlaneNormalCorrespondence struct {
	Point  Vec     `json:"point"`
	Normal Vec     `json:"normal"`
	Offset float64 `json:"offset"`
}

// PoseConstraint asserts the absolute poses on either side of the
// relative transform, each as [qx, qy, qz, qw, tx, ty, tz].
type PoseConstraint struct {
	Curr [se3.NumParameters]float64 `json:"curr"`
	Last [se3.NumParameters]float64 `json:"last"`
}

// Set is one registration problem's worth of correspondences, as produced
// by an external matching stage.
type Set struct {
	// Initial is the starting transform; all zeros means identity.
	Initial [se3.NumParameters]float64 `json:"initial"`
	Sweep   l2frames.Sweep             `json:"sweep"`
	// DeriveAzimuth places untimed returns in the sweep by the azimuth of
	// their own sensor-frame position.
	DeriveAzimuth bool                        `json:"derive_azimuth,omitempty"`
	Points        []PointCorrespondence       `json:"points,omitempty"`
	Lines         []LineCorrespondence        `json:"lines,omitempty"`
	Planes        []PlaneCorrespondence       `json:"planes,omitempty"`
	PlaneNormals  []PlaneNormalCorrespondence `json:"plane_normals,omitempty"`
	Poses         []PoseConstraint            `json:"poses,omitempty"`
}

// DecodeSet reads a JSON Set.
func DecodeSet(r io.Reader) (*Set, error) {
	var s Set
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode correspondence set: %w", err)
	}
	return &s, nil
}

// InitialParams returns the starting parameter block, substituting the
// identity for an all-zero Initial and normalizing its quaternion.
func (s *Set) InitialParams() []float64 {
	if s.Initial == ([se3.NumParameters]float64{}) {
		id := se3.Identity[se3.Float]().Params()
		return id[:]
	}
	out := se3.FromParams(s.Initial[:]).Params()
	return out[:]
}

// fraction resolves the sweep fraction of the return p.
func (s *Set) fraction(p Vec, t Timing) float64 {
	switch {
	case t.Fraction != nil:
		return *t.Fraction
	case t.TimestampNanos != nil:
		return s.Sweep.TimeFraction(*t.TimestampNanos)
	case t.AzimuthDeg != nil:
		return s.Sweep.AzimuthFraction(*t.AzimuthDeg)
	case s.DeriveAzimuth:
		return s.Sweep.AzimuthFraction(l2frames.AzimuthOf(p.r3()))
	}
	return 1
}

// CostFunctions builds one factor per correspondence selected by mode.
// Pose constraints are always included.
func (s *Set) CostFunctions(mode Mode) []CostFunction {
	var out []CostFunction
	if mode.uses(kindPoint) {
		for _, c := range s.Points {
			out = append(out, NewPoint2Point(c.Point.r3(), c.Target.r3()))
		}
	}
	if mode.uses(kindLine) {
		for _, c := range s.Lines {
			out = append(out, NewPoint2Line(c.Point.r3(), c.A.r3(), c.B.r3(), s.fraction(c.Point, c.Timing)))
		}
	}
	if mode.uses(kindPlane) {
		for _, c := range s.Planes {
			out = append(out, NewPoint2Plane(c.Point.r3(), c.J.r3(), c.L.r3(), c.M.r3(), s.fraction(c.Point, c.Timing)))
		}
	}
	if mode.uses(kindPlaneNormal) {
		for _, c := range s.PlaneNormals {
			out = append(out, NewPoint2PlaneNorm(c.Point.r3(), c.Normal.r3(), c.Offset))
		}
	}
	for _, c := range s.Poses {
		out = append(out, NewPose2Pose(se3.FromParams(c.Curr[:]), se3.FromParams(c.Last[:])))
	}
	return out
}

// Len is the total number of correspondences of every kind.
func (s *Set) Len() int {
	return len(s.Points) + len(s.Lines) + len(s.Planes) + len(s.PlaneNormals) + len(s.Poses)
}
