package oracle

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/testutil"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

const tol = 1e-4

func TestDivide(t *testing.T) {
	assert.True(t, math.IsNaN(Divide(0, 0)))
	assert.True(t, math.IsInf(Divide(3, 0), 1))
	assert.True(t, math.IsInf(Divide(-3, 0), -1))
	assert.Equal(t, 0.0, Divide(0, 2))
	assert.Equal(t, 1.5, Divide(3, 2))
}

func TestPassCountsInfScenario(t *testing.T) {
	g := testutil.InfGrid()
	tg := kinematics.TimeGrid{NumFrames: g.NumFrames, IntervalFrames: 99, FPS: g.FPS}
	want := map[float64][]int{4.5: {45}, 5: {40}, 5.5: {40}}
	for x, counts := range want {
		if diff := cmp.Diff(counts, PassCounts(g, tg, x)); diff != "" {
			t.Errorf("PassCounts(line %g) mismatch (-want +got):\n%s", x, diff)
		}
	}
}

func TestOccupancyInfScenario(t *testing.T) {
	g := testutil.InfGrid()
	area := testutil.InfArea()
	occ := Occupancy(g, area.X0, area.X1, boundary.ExitGrace)
	require.Len(t, occ, 100)

	want := []int{5, 5, 5, 5, 5, 5, 5, 5, 0, 0, 0, 0, 0, 5}
	if diff := cmp.Diff(want, occ[:len(want)]); diff != "" {
		t.Errorf("first frames mismatch (-want +got):\n%s", diff)
	}
	for f, n := range occ {
		assert.Zero(t, n%5, "frame %d: %d is not a multiple of 5", f, n)
	}
}

func TestMethodEInfScenario(t *testing.T) {
	testutil.MuteLogs(t)
	res, err := MethodE(EParams{
		Grid:           testutil.InfGrid(),
		IntervalFrames: 99,
		Lines:          testutil.InfLines(),
		Area:           testutil.InfArea(),
		Policy:         boundary.ExitGrace,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Intervals)
	assert.InDelta(t, 12.375, res.IntervalSeconds, 1e-12)
	require.Len(t, res.DensityDx, 100)
	assert.Equal(t, 5.0, res.DensityDx[0])
	assert.Equal(t, 0.5, res.DensityArea[0])
	assert.Equal(t, 0.0, res.DensityArea[8])

	require.Len(t, res.Lines, 3)
	line := res.Lines[1]
	assert.Equal(t, []int{40}, line.PassCounts)
	assert.InDelta(t, 40/12.375, line.Flow[0], 1e-12)
	assert.InDelta(t, 40/123.75, line.SpecificFlow[0], 1e-12)

	require.Len(t, line.Velocity, 100)
	assert.Equal(t, 0, line.Frames[0])
	assert.Equal(t, 99, line.Frames[99])
	assert.InDelta(t, (40/123.75)/0.5, line.Velocity[0], 1e-12)
	assert.True(t, math.IsInf(line.Velocity[8], 1), "zero density must give +Inf, got %g", line.Velocity[8])
}

func TestMethodEVelocityRowsShareBoundaryFrame(t *testing.T) {
	frames, v := velocityRows([]float64{1, 2}, []float64{1, 1, 1, 2, 2}, 2)
	assert.Equal(t, []int{0, 1, 2, 2, 3, 4}, frames)
	assert.Equal(t, []float64{1, 1, 1, 2, 1, 1}, v)
}

func TestMethodERejectsShortTrajectory(t *testing.T) {
	_, err := MethodE(EParams{
		Grid:           testutil.InfGrid(),
		IntervalFrames: 100,
		Area:           testutil.InfArea(),
	})
	assert.Error(t, err)
}

func TestMethodF(t *testing.T) {
	testutil.MuteLogs(t)
	res, err := MethodF(FParams{
		Grid:           testutil.InfGrid(),
		IntervalFrames: 99,
		Lines:          testutil.InfLines(),
		Area:           testutil.InfArea(),
		AbsTolerance:   tol,
	})
	require.NoError(t, err)

	assert.InDelta(t, 8.0/7-tol, res.Velocity.Lo, 1e-12)
	assert.InDelta(t, 8.0/6+tol, res.Velocity.Hi, 1e-12)
	require.Len(t, res.PedIDs, 40)
	assert.Equal(t, 1, res.PedIDs[0])
	assert.Equal(t, 40, res.PedIDs[39])

	line := res.Lines[0]
	assert.Equal(t, []int{45}, line.PassCounts)
	sf := 45 / 123.75
	assert.InDelta(t, sf/res.Velocity.Hi, line.Density[0].Lo, 1e-12)
	assert.InDelta(t, sf/res.Velocity.Lo, line.Density[0].Hi, 1e-12)
}

func TestMethodFExplicitPedIDs(t *testing.T) {
	testutil.MuteLogs(t)
	ids := []int{7, 3, 5}
	res, err := MethodF(FParams{
		Grid:           testutil.InfGrid(),
		IntervalFrames: 99,
		Area:           testutil.InfArea(),
		AbsTolerance:   tol,
		PedIDs:         ids,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 7}, res.PedIDs)
	assert.Equal(t, []int{7, 3, 5}, ids, "caller's slice must not be reordered")
}

func TestDensityFromFlowDegenerate(t *testing.T) {
	r := densityFromFlow(2, tolerance.Range{Lo: 1.25, Hi: 1.25})
	assert.True(t, r.Degenerate())
	assert.Equal(t, 1.6, r.Lo)
}

func gScenario() GParams {
	return GParams{
		Grid: kinematics.Grid{
			Columns:       6,
			PedsPerColumn: 2,
			Spacing:       1,
			StartX:        0,
			Velocity:      1,
			FPS:           4,
			NumFrames:     40,
		},
		DeltaTSeconds: 5,
		DtFrames:      8,
		Area:          geometry.Area{X0: 2, X1: 4, DeltaY: 1},
		Polygons:      geometry.PolygonSet{X0: 2, Width: 1, Count: 2, DeltaY: 1},
		AbsTolerance:  tol,
	}
}

func TestMethodGPolygons(t *testing.T) {
	testutil.MuteLogs(t)
	res, err := MethodG(gScenario())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Intervals)
	assert.Equal(t, 20, res.IntervalFrames)
	require.Len(t, res.Polygons, 2)
	assert.Equal(t, []int{6}, res.Polygons[0].Counts)
	assert.Equal(t, []int{4}, res.Polygons[1].Counts)

	p := res.Polygons[0]
	assert.True(t, p.Velocity.Degenerate())
	assert.Equal(t, 1.0, p.Velocity.Lo)
	assert.True(t, p.Density[0].Degenerate())
	assert.InDelta(t, 1.2, p.Density[0].Lo, 1e-12)
	assert.InDelta(t, 1.2, p.NominalDensity[0], 1e-12)
}

func TestMethodGSubIntervals(t *testing.T) {
	testutil.MuteLogs(t)
	res, err := MethodG(gScenario())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 4, 6, 6, 4}, res.DtCounts)
	testutil.AssertFloatsClose(t, res.DtDistances, []float64{0, 6, 8, 8, 6}, 1e-12)
	testutil.AssertFloatsClose(t, res.DtVelocity, []float64{math.NaN(), 0.75, 8.0 / 12, 8.0 / 12, 0.75}, 1e-12)
	testutil.AssertFloatsClose(t, res.DtDensity, []float64{0, 2, 3, 3, 2}, 1e-12)
	testutil.AssertFloatsClose(t, res.DtFlow, []float64{0, 1.5, 2, 2, 1.5}, 1e-12)
}

func TestCheckedSubIntervals(t *testing.T) {
	assert.Equal(t, 5, checkedSubIntervals(40, 20, 8))
	assert.Equal(t, 20, checkedSubIntervals(100, 10, 5))
	assert.Equal(t, 9, checkedSubIntervals(95, 10, 10))
}

func TestMethodGRejectsFractionalInterval(t *testing.T) {
	p := gScenario()
	p.DeltaTSeconds = 1.1
	_, err := MethodG(p)
	assert.Error(t, err)
}

func TestMethodGRejectsMissingOrLongInterval(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		wantErr string
	}{
		{"unset", 0, "positive"},
		{"negative", -5, "positive"},
		{"longer than trajectory", 20, "no complete interval"},
		{"exactly the trajectory", 10, "no complete interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gScenario()
			p.DeltaTSeconds = tt.seconds
			res, err := MethodG(p)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func hScenario() HParams {
	return HParams{
		Grid: kinematics.Grid{
			Columns:       10,
			PedsPerColumn: 2,
			Spacing:       1,
			StartX:        0,
			Velocity:      1,
			FPS:           10,
			NumFrames:     200,
		},
		IntervalFrames: 50,
		Area:           geometry.Area{X0: 5, X1: 7, DeltaY: 1},
		Policy:         boundary.HalfOpen,
	}
}

func TestMethodH(t *testing.T) {
	testutil.MuteLogs(t)
	res, err := MethodH(hScenario())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Intervals)
	assert.Equal(t, []int{0, 180, 200}, res.Accumulated)
	testutil.AssertFloatsClose(t, res.Density, []float64{0, 1.8, 2}, 1e-12)
	testutil.AssertFloatsClose(t, res.Velocity, []float64{math.NaN(), 1, 1}, 0)
}

func TestMethodHFlowIsDensityTimesVelocity(t *testing.T) {
	testutil.MuteLogs(t)
	for _, v := range []float64{0.5, 1, 1.3, 2.7} {
		p := hScenario()
		p.Grid.Velocity = v
		res, err := MethodH(p)
		require.NoError(t, err)
		for i := range res.Flow {
			assert.InDelta(t, res.Density[i]*v, res.Flow[i], tol, "v=%g interval %d", v, i)
		}
	}
}
