package oracle

import (
	"math"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/kinematics"
)

// Divide is num/den with the pipeline's handling of a zero denominator: 0/0
// is NaN and a non-zero numerator gives an infinity of its sign.
func Divide(num, den float64) float64 {
	if den == 0 {
		switch {
		case num == 0 || math.IsNaN(num):
			return math.NaN()
		case num > 0:
			return math.Inf(1)
		default:
			return math.Inf(-1)
		}
	}
	return num / den
}

// PassCounts returns, for each interval of tg, the number of pedestrians
// whose column passes the line at x between the interval's first and last
// frame.
func PassCounts(g kinematics.Grid, tg kinematics.TimeGrid, x float64) []int {
	counts := make([]int, tg.Intervals())
	for i := range counts {
		start, end := tg.Bounds(i)
		for c := 0; c < g.Columns; c++ {
			if boundary.Crosses(g.PositionAtFrame(c, start), g.PositionAtFrame(c, end), x) {
				counts[i] += g.PedsPerColumn
			}
		}
	}
	return counts
}

// Occupancy returns the number of pedestrians inside [a, b] at every frame
// of the trajectory under the given edge policy.
func Occupancy(g kinematics.Grid, a, b float64, policy boundary.EdgePolicy) []int {
	dpf := g.DistPerFrame()
	counts := make([]int, g.NumFrames)
	for f := range counts {
		for c := 0; c < g.Columns; c++ {
			if boundary.Occupies(g.PositionAtFrame(c, f), a, b, dpf, policy) {
				counts[f] += g.PedsPerColumn
			}
		}
	}
	return counts
}

func perUnit(counts []int, unit float64) []float64 {
	out := make([]float64, len(counts))
	for i, n := range counts {
		out[i] = Divide(float64(n), unit)
	}
	return out
}
