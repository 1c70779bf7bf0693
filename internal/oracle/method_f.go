package oracle

import (
	"fmt"
	"slices"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// FParams configures Method F: flow over counting lines and the velocity
// of each pedestrian that traverses an area.
type FParams struct {
	Grid           kinematics.Grid
	IntervalFrames int
	Lines          []geometry.Line
	Area           geometry.Area
	AbsTolerance   float64
	// PedIDs overrides the pedestrian ids expected in the velocity file.
	PedIDs []int
}

// FLine holds the expected series of one counting line.
type FLine struct {
	Line         geometry.Line
	PassCounts   []int
	Flow         []float64
	SpecificFlow []float64
	Density      []tolerance.Range // specific flow over the velocity range
}

// FResult is the expected output of Method F.
type FResult struct {
	Intervals       int
	IntervalSeconds float64
	Velocity        tolerance.Range
	PedIDs          []int // sorted
	Lines           []FLine
}

// MethodF computes the expected Method F series.
func MethodF(p FParams) (*FResult, error) {
	if err := p.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("method F: %w", err)
	}
	if err := p.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method F: %w", err)
	}
	tg := kinematics.TimeGrid{NumFrames: p.Grid.NumFrames, IntervalFrames: p.IntervalFrames, FPS: p.Grid.FPS}
	res := &FResult{
		Intervals:       tg.Intervals(),
		IntervalSeconds: tg.IntervalSeconds(),
		Velocity:        tolerance.VelocityRange(p.Area.DeltaX(), p.Grid.Velocity, p.Grid.FPS, p.AbsTolerance),
	}
	if res.Intervals <= 0 {
		return nil, fmt.Errorf("method F: %d frames hold no complete interval of %d frames", p.Grid.NumFrames, p.IntervalFrames)
	}
	if p.PedIDs != nil {
		res.PedIDs = slices.Clone(p.PedIDs)
		slices.Sort(res.PedIDs)
	} else {
		res.PedIDs = TraversingPedIDs(p.Grid, p.Area)
	}

	for _, line := range p.Lines {
		counts := PassCounts(p.Grid, tg, line.X)
		l := FLine{
			Line:         line,
			PassCounts:   counts,
			Flow:         perUnit(counts, res.IntervalSeconds),
			SpecificFlow: perUnit(counts, res.IntervalSeconds*p.Area.DeltaY),
		}
		l.Density = make([]tolerance.Range, len(counts))
		for i, sf := range l.SpecificFlow {
			l.Density[i] = densityFromFlow(sf, res.Velocity)
		}
		res.Lines = append(res.Lines, l)
	}

	monitoring.Infof("[oracle] method F: velocity %v m/s, %d pedestrian(s) traverse the area", res.Velocity, len(res.PedIDs))
	return res, nil
}

// densityFromFlow bounds density as specific flow divided by a velocity in
// v. The fastest velocity gives the lowest density.
func densityFromFlow(specificFlow float64, v tolerance.Range) tolerance.Range {
	if v.Degenerate() {
		d := Divide(specificFlow, v.Lo)
		return tolerance.Range{Lo: d, Hi: d}
	}
	return tolerance.Range{Lo: Divide(specificFlow, v.Hi), Hi: Divide(specificFlow, v.Lo)}
}

// TraversingPedIDs lists the pedestrians whose column crosses the whole area
// within the recorded frames, and for whom the pipeline can therefore report
// a velocity. Pedestrians are numbered from 1, column by column.
func TraversingPedIDs(g kinematics.Grid, area geometry.Area) []int {
	ids := []int{}
	last := g.NumFrames - 1
	for c := 0; c < g.Columns; c++ {
		if !boundary.Spans(g.PositionAtFrame(c, 0), g.PositionAtFrame(c, last), area.X0, area.X1) {
			continue
		}
		for r := 0; r < g.PedsPerColumn; r++ {
			ids = append(ids, c*g.PedsPerColumn+r+1)
		}
	}
	return ids
}
