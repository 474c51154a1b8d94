package se3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/scanmatch/internal/testutil"
)

const tol = 1e-9

// randomPose draws a rotation of angle up to maxAngle about a random axis
// and a translation inside a cube of half-width maxTrans.
func randomPose(rng *rand.Rand, maxAngle, maxTrans float64) Pose {
	axis := [3]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	angle := (2*rng.Float64() - 1) * maxAngle
	trans := r3.Vector{
		X: (2*rng.Float64() - 1) * maxTrans,
		Y: (2*rng.Float64() - 1) * maxTrans,
		Z: (2*rng.Float64() - 1) * maxTrans,
	}
	return NewPose(QuatFromAxisAngle(axis, angle), trans)
}

func assertPoseNear(t *testing.T, name string, got, want Pose, eps float64) {
	t.Helper()
	g, w := got.Matrix(), want.Matrix()
	testutil.AssertSliceNear(t, name, g[:], w[:], eps)
}

func TestIdentityActsTrivially(t *testing.T) {
	p := r3.Vector{X: 1.5, Y: -2, Z: 0.25}
	got := Identity[Float]().ActVector(p).Vector()
	if got != p {
		t.Errorf("identity moved point: got %v, want %v", got, p)
	}
}

func TestComposeAppliesRightOperandFirst(t *testing.T) {
	rotZ := NewPose(QuatFromAxisAngle([3]float64{0, 0, 1}, math.Pi/2), r3.Vector{})
	shiftX := NewPose(IdentityQuat[Float](), r3.Vector{X: 1})
	p := r3.Vector{}

	// rotate after shifting: (1,0,0) -> (0,1,0)
	testutil.AssertVectorNear(t, "rotZ∘shiftX", Compose(rotZ, shiftX).ActVector(p).Vector(), r3.Vector{Y: 1}, tol)
	// shift after rotating: origin stays put then moves to (1,0,0)
	testutil.AssertVectorNear(t, "shiftX∘rotZ", Compose(shiftX, rotZ).ActVector(p).Vector(), r3.Vector{X: 1}, tol)
}

func TestInverseIsGroupInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		a := randomPose(rng, math.Pi, 10)
		assertPoseNear(t, "a∘a⁻¹", Compose(a, Inverse(a)), Identity[Float](), tol)
		assertPoseNear(t, "a⁻¹∘a", Compose(Inverse(a), a), Identity[Float](), tol)
	}
}

func TestComposeKeepsUnitQuaternion(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	acc := Identity[Float]()
	for i := 0; i < 1000; i++ {
		acc = Compose(acc, randomPose(rng, 0.3, 1))
	}
	testutil.AssertNear(t, "|q|²", acc.Rot.SquaredNorm().Value(), 1, 1e-9)
}

func TestMatrixMatchesAct(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := randomPose(rng, 2, 5)
	p := r3.Vector{X: 0.3, Y: -1.2, Z: 4}
	m := a.Matrix()
	want := r3.Vector{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
	testutil.AssertVectorNear(t, "act", a.ActVector(p).Vector(), want, tol)
}

func TestParamsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := randomPose(rng, 1, 3)
	p := a.Params()
	if got := FromParams(p[:]); got != a {
		t.Errorf("FromParams(Params()) = %+v, want %+v", got, a)
	}
}

func TestFromParamsNormalizesRotation(t *testing.T) {
	// quaternion of a 0.3 rad yaw rounded to four decimals
	p := []float64{0, 0, 0.1494, 0.9888, 1, 2, 3}
	a := FromParams(p)
	testutil.AssertNear(t, "|q|²", a.Rot.SquaredNorm().Value(), 1, 1e-15)
	testutil.AssertVectorNear(t, "trans", a.Trans.Vector(), testVector(1, 2, 3), 0)
	n := math.Hypot(0.1494, 0.9888)
	testutil.AssertNear(t, "qz", float64(a.Rot.Z), 0.1494/n, 1e-15)
	testutil.AssertNear(t, "qw", float64(a.Rot.W), 0.9888/n, 1e-15)

	// the composition with its inverse is exact once normalized
	assertPoseNear(t, "a∘a⁻¹", Compose(a, Inverse(a)), Identity[Float](), 1e-12)
}

func TestGonumQuatRoundTrip(t *testing.T) {
	q := QuatFromAxisAngle([3]float64{1, 2, 3}, 0.7)
	back := QuatFromGonum(GonumQuat(q))
	testutil.AssertSliceNear(t, "q",
		[]float64{float64(back.X), float64(back.Y), float64(back.Z), float64(back.W)},
		[]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)}, 1e-14)
}

func TestCastCarriesNoDerivative(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := Cast[Dual](randomPose(rng, 1, 1))
	q := a.Rot
	for _, d := range []Dual{q.X, q.Y, q.Z, q.W, a.Trans.X, a.Trans.Y, a.Trans.Z} {
		if d.Emag != 0 {
			t.Fatalf("cast produced derivative %v", d.Emag)
		}
	}
}

func testVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}
