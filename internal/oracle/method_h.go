package oracle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
)

// HParams configures Method H: occupancy of an area accumulated over the
// frames of each interval.
type HParams struct {
	Grid           kinematics.Grid
	IntervalFrames int
	Area           geometry.Area
	Policy         boundary.EdgePolicy
}

// HResult is the expected output of Method H.
type HResult struct {
	Intervals      int
	IntervalFrames int
	// Accumulated is the sum of the per-frame occupancy over the frames
	// [i·T, (i+1)·T) of interval i, in pedestrian-frames.
	Accumulated []int
	Density     []float64 // time-averaged, 1/m
	Flow        []float64 // 1/s
	Velocity    []float64 // m/s
}

// MethodH computes the expected Method H series.
func MethodH(p HParams) (*HResult, error) {
	g := p.Grid
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("method H: %w", err)
	}
	if err := p.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method H: %w", err)
	}
	tg := kinematics.TimeGrid{NumFrames: g.NumFrames, IntervalFrames: p.IntervalFrames, FPS: g.FPS}
	n := tg.Intervals()
	if n <= 0 {
		return nil, fmt.Errorf("method H: %d frames hold no complete interval of %d frames", g.NumFrames, p.IntervalFrames)
	}

	occ := Occupancy(g, p.Area.X0, p.Area.X1, p.Policy)
	window := make([]float64, p.IntervalFrames)
	res := &HResult{
		Intervals:      n,
		IntervalFrames: p.IntervalFrames,
		Accumulated:    make([]int, n),
		Density:        make([]float64, n),
		Flow:           make([]float64, n),
		Velocity:       make([]float64, n),
	}
	for i := 0; i < n; i++ {
		start, _ := tg.Bounds(i)
		for f := range window {
			window[f] = float64(occ[start+f])
		}
		sum := floats.Sum(window)
		res.Accumulated[i] = int(sum)
		res.Density[i] = Divide(sum, float64(p.IntervalFrames)*p.Area.DeltaX())
		res.Flow[i] = res.Density[i] * g.Velocity
		res.Velocity[i] = g.Velocity
		if sum == 0 {
			res.Velocity[i] = math.NaN()
		}
	}

	monitoring.Infof("[oracle] method H: %d interval(s) of %d frames", n, p.IntervalFrames)
	return res, nil
}
