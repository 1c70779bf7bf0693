package validate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// DefaultAbsTolerance absorbs the four decimal digits the pipeline writes.
const DefaultAbsTolerance = 1e-4

// Equal reports whether a measured value matches an expected one. NaN
// matches only NaN; an infinity matches only the same infinity.
func Equal(want, got, tol float64) bool {
	if math.IsNaN(want) || math.IsNaN(got) {
		return math.IsNaN(want) && math.IsNaN(got)
	}
	if math.IsInf(want, 0) || math.IsInf(got, 0) {
		return want == got
	}
	return scalar.EqualWithinAbs(want, got, tol)
}

// compareValues returns one Mismatch per index where got differs from want.
// The slices must have equal length.
func compareValues(want, got []float64, tol float64) []Mismatch {
	var out []Mismatch
	for i := range want {
		if !Equal(want[i], got[i], tol) {
			out = append(out, Mismatch{Index: i, Expected: formatValue(want[i]), Actual: got[i]})
		}
	}
	return out
}

// compareRanges checks got[i] against ranges[i].
func compareRanges(ranges []tolerance.Range, got []float64, tol float64) []Mismatch {
	var out []Mismatch
	for i, r := range ranges {
		if !r.Accepts(got[i], tol) {
			out = append(out, Mismatch{Index: i, Expected: r.String(), Actual: got[i]})
		}
	}
	return out
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func toFloats(ints []int) []float64 {
	out := make([]float64, len(ints))
	for i, n := range ints {
		out[i] = float64(n)
	}
	return out
}
