package oracle

import (
	"fmt"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// GParams configures Method G. The polygon strips are evaluated over long
// intervals of DeltaTSeconds; the area is evaluated over short intervals of
// DtFrames.
type GParams struct {
	Grid          kinematics.Grid
	DeltaTSeconds float64
	DtFrames      int
	Area          geometry.Area
	Polygons      geometry.PolygonSet
	AbsTolerance  float64
}

// GPolygon holds the expected values of one polygon strip.
type GPolygon struct {
	Index  int
	Bounds geometry.Area
	Counts []int // pedestrians that traverse the whole strip, per interval
	// Velocity applies to every interval with a non-zero count; intervals
	// without pedestrians must report NaN.
	Velocity tolerance.Range
	Density  []tolerance.Range
	// NominalDensity is count·dx/v over interval·dx, the value the pipeline
	// approaches. Density mismatches and plots report it.
	NominalDensity []float64
}

// GResult is the expected output of Method G.
type GResult struct {
	Intervals      int // long intervals
	IntervalFrames int
	Polygons       []GPolygon

	DtFrames  int
	DtSeconds float64
	// Sub-interval series, one entry per short interval the pipeline reports.
	DtCounts    []int
	DtDistances []float64 // summed over pedestrians, m
	DtVelocity  []float64
	DtDensity   []float64
	DtFlow      []float64
}

// MethodG computes the expected Method G series.
func MethodG(p GParams) (*GResult, error) {
	g := p.Grid
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	if err := p.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	if err := p.Polygons.Validate(); err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	if p.DtFrames <= 0 {
		return nil, fmt.Errorf("method G: dt_frames must be positive, got %d", p.DtFrames)
	}
	intervalFrames, err := kinematics.IntervalFramesFromSeconds(p.DeltaTSeconds, g.FPS)
	if err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	tg := kinematics.TimeGrid{NumFrames: g.NumFrames, IntervalFrames: intervalFrames, FPS: g.FPS}
	if tg.Intervals() == 0 {
		return nil, fmt.Errorf("method G: %d frames hold no complete interval of %d frames", g.NumFrames, intervalFrames)
	}

	res := &GResult{
		Intervals:      tg.Intervals(),
		IntervalFrames: intervalFrames,
		DtFrames:       p.DtFrames,
		DtSeconds:      float64(p.DtFrames) / g.FPS,
	}
	res.Polygons = polygonSeries(g, tg, p)
	res.DtCounts, res.DtDistances = areaTransits(g, p.Area, p.DtFrames, checkedSubIntervals(g.NumFrames, intervalFrames, p.DtFrames))

	dx := p.Area.DeltaX()
	n := len(res.DtCounts)
	res.DtVelocity = make([]float64, n)
	res.DtDensity = make([]float64, n)
	res.DtFlow = make([]float64, n)
	for i := range res.DtCounts {
		count := float64(res.DtCounts[i])
		dist := res.DtDistances[i]
		res.DtVelocity[i] = Divide(dist, res.DtSeconds*count)
		res.DtDensity[i] = Divide(count, dx)
		res.DtFlow[i] = Divide(dist, res.DtSeconds*dx)
	}

	monitoring.Infof("[oracle] method G: %d polygon(s) over %d interval(s), %d sub-interval(s) of %d frames",
		len(res.Polygons), res.Intervals, n, p.DtFrames)
	return res, nil
}

// checkedSubIntervals is the number of short intervals the pipeline reports:
// it only covers the frames that belong to complete long intervals.
func checkedSubIntervals(numFrames, intervalFrames, dtFrames int) int {
	return kinematics.NumTimeIntervals(numFrames-numFrames%intervalFrames+1, dtFrames)
}

func polygonSeries(g kinematics.Grid, tg kinematics.TimeGrid, p GParams) []GPolygon {
	polys := make([]GPolygon, p.Polygons.Count)
	dx := p.Polygons.Width
	seconds := tg.IntervalSeconds()
	vRange := tolerance.VelocityRange(dx, g.Velocity, g.FPS, p.AbsTolerance)
	for k := range polys {
		bounds := p.Polygons.Polygon(k)
		poly := GPolygon{
			Index:          k,
			Bounds:         bounds,
			Counts:         make([]int, tg.Intervals()),
			Velocity:       vRange,
			Density:        make([]tolerance.Range, tg.Intervals()),
			NominalDensity: make([]float64, tg.Intervals()),
		}
		for i := range poly.Counts {
			start, end := tg.Bounds(i)
			for c := 0; c < g.Columns; c++ {
				if boundary.Spans(g.PositionAtFrame(c, start), g.PositionAtFrame(c, end), bounds.X0, bounds.X1) {
					poly.Counts[i] += g.PedsPerColumn
				}
			}
			poly.Density[i] = tolerance.DensityRange(dx, g.Velocity, g.FPS, p.AbsTolerance, poly.Counts[i], seconds)
			poly.NominalDensity[i] = (float64(poly.Counts[i]) * dx / g.Velocity) / (seconds * dx)
		}
		polys[k] = poly
	}
	return polys
}

// areaTransits steps every column through n short intervals of dtFrames and
// sums, per interval, the pedestrians counted inside the area and the
// distance they cover there.
func areaTransits(g kinematics.Grid, area geometry.Area, dtFrames, n int) ([]int, []float64) {
	counts := make([]int, n)
	dists := make([]float64, n)
	peds := float64(g.PedsPerColumn)
	for i := 0; i < n; i++ {
		for c := 0; c < g.Columns; c++ {
			out := boundary.Classify(boundary.Step{
				Pos:        g.FramePositions(c),
				StartFrame: i * dtFrames,
				EndFrame:   (i + 1) * dtFrames,
			}, area.X0, area.X1)
			if !out.Counted {
				continue
			}
			counts[i] += g.PedsPerColumn
			dists[i] += out.Distance * peds
		}
	}
	return counts, dists
}
