// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Near reports whether a and b differ by at most tol.
func Near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// AssertNear checks that got is within tol of want.
func AssertNear(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if !Near(got, want, tol) {
		t.Errorf("%s = %.12g, want %.12g (tol %g)", name, got, want, tol)
	}
}

// AssertSliceNear checks element-wise closeness of two equal-length slices.
func AssertSliceNear(t testing.TB, name string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", name, len(got), len(want))
	}
	for i := range got {
		if !Near(got[i], want[i], tol) {
			t.Errorf("%s[%d] = %.12g, want %.12g (tol %g)", name, i, got[i], want[i], tol)
		}
	}
}

// AssertVectorNear checks that two points agree to within tol per axis.
func AssertVectorNear(t testing.TB, name string, got, want r3.Vector, tol float64) {
	t.Helper()
	AssertSliceNear(t, name, []float64{got.X, got.Y, got.Z}, []float64{want.X, want.Y, want.Z}, tol)
}

// AllFinite reports whether every value is neither NaN nor ±Inf.
func AllFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
