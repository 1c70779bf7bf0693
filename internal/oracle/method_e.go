package oracle

import (
	"fmt"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
)

// EParams configures Method E: flow over counting lines per interval and
// density inside an area per frame.
type EParams struct {
	Grid           kinematics.Grid
	IntervalFrames int
	Lines          []geometry.Line
	Area           geometry.Area
	Policy         boundary.EdgePolicy
}

// ELine holds the expected series of one counting line.
type ELine struct {
	Line         geometry.Line
	PassCounts   []int     // per interval
	Flow         []float64 // per interval, 1/s
	SpecificFlow []float64 // per interval, 1/(m·s)
	// Frames and Velocity have IntervalFrames+1 rows per interval: each
	// interval reports its own first and last frame, so neighbouring
	// intervals repeat their shared frame.
	Frames   []int
	Velocity []float64
}

// EResult is the expected output of Method E.
type EResult struct {
	Intervals       int
	IntervalFrames  int
	IntervalSeconds float64
	InArea          []int     // per frame
	DensityDx       []float64 // per frame, 1/m
	DensityArea     []float64 // per frame, 1/m²
	Lines           []ELine
}

// MethodE computes the expected Method E series.
func MethodE(p EParams) (*EResult, error) {
	if err := p.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("method E: %w", err)
	}
	if err := p.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method E: %w", err)
	}
	tg := kinematics.TimeGrid{NumFrames: p.Grid.NumFrames, IntervalFrames: p.IntervalFrames, FPS: p.Grid.FPS}
	res := &EResult{
		Intervals:       tg.Intervals(),
		IntervalFrames:  p.IntervalFrames,
		IntervalSeconds: tg.IntervalSeconds(),
	}
	if res.Intervals <= 0 {
		return nil, fmt.Errorf("method E: %d frames hold no complete interval of %d frames", p.Grid.NumFrames, p.IntervalFrames)
	}

	res.InArea = Occupancy(p.Grid, p.Area.X0, p.Area.X1, p.Policy)
	res.DensityDx = perUnit(res.InArea, p.Area.DeltaX())
	res.DensityArea = perUnit(res.InArea, p.Area.DeltaX()*p.Area.DeltaY)

	for _, line := range p.Lines {
		counts := PassCounts(p.Grid, tg, line.X)
		l := ELine{
			Line:         line,
			PassCounts:   counts,
			Flow:         perUnit(counts, res.IntervalSeconds),
			SpecificFlow: perUnit(counts, res.IntervalSeconds*p.Area.DeltaY),
		}
		l.Frames, l.Velocity = velocityRows(l.SpecificFlow, res.DensityArea, p.IntervalFrames)
		res.Lines = append(res.Lines, l)
	}

	monitoring.Infof("[oracle] method E: %d interval(s) of %d frames, %d line(s)", res.Intervals, p.IntervalFrames, len(p.Lines))
	return res, nil
}

// velocityRows expands the per-interval specific flow against the per-frame
// density into the pipeline's velocity rows.
func velocityRows(specificFlow, density []float64, intervalFrames int) ([]int, []float64) {
	rowsPerInterval := intervalFrames + 1
	n := len(specificFlow) * rowsPerInterval
	frames := make([]int, n)
	v := make([]float64, n)
	for j := 0; j < n; j++ {
		k := j / rowsPerInterval
		frame := k*intervalFrames + j%rowsPerInterval
		frames[j] = frame
		v[j] = Divide(specificFlow[k], density[frame])
	}
	return frames, v
}
