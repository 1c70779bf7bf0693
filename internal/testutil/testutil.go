// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
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

// AssertFloatsClose checks that got and want have the same length and agree
// element-wise within tol. NaN matches NaN; infinities must match exactly.
func AssertFloatsClose(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		switch {
		case math.IsNaN(w):
			if !math.IsNaN(g) {
				t.Errorf("[%d] = %g, want NaN", i, g)
			}
		case math.IsInf(w, 0):
			if g != w {
				t.Errorf("[%d] = %g, want %g", i, g, w)
			}
		case math.IsNaN(g) || math.Abs(g-w) > tol:
			t.Errorf("[%d] = %g, want %g (±%g)", i, g, w, tol)
		}
	}
}

// MuteLogs silences the monitoring logger for the duration of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// InfGrid is the 30×5 grid at 1.3 m/s and 8 fps used by the Method E
// scenario whose velocities contain infinities.
func InfGrid() kinematics.Grid {
	return kinematics.Grid{
		Columns:       30,
		PedsPerColumn: 5,
		Spacing:       2,
		StartX:        4.5,
		Velocity:      1.3,
		FPS:           8,
		NumFrames:     100,
	}
}

// InfArea is the [4.5, 5.5] × 10 measurement area of InfGrid.
func InfArea() geometry.Area {
	return geometry.Area{X0: 4.5, X1: 5.5, DeltaY: 10}
}

// InfLines are the counting lines of InfGrid.
func InfLines() []geometry.Line {
	return []geometry.Line{{ID: 1, X: 4.5}, {ID: 2, X: 5}, {ID: 3, X: 5.5}}
}
