package tolerance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flowcheck/internal/monitoring"
)

func muteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func TestVelocityRange(t *testing.T) {
	muteLogs(t)
	const tol = 1e-4

	t.Run("integral frames collapse to the true velocity", func(t *testing.T) {
		r := VelocityRange(1, 1.25, 10, tol)
		assert.True(t, r.Degenerate())
		assert.Equal(t, 1.25, r.Lo)
		assert.Nil(t, r.Warning)
	})

	t.Run("float noise near a whole frame count collapses", func(t *testing.T) {
		// 1.4/0.2*1 is 6.999999999999999
		r := VelocityRange(1.4, 0.2, 1, tol)
		assert.True(t, r.Degenerate())
		assert.Equal(t, 0.2, r.Lo)

		d := DensityRange(1.4, 0.2, 1, tol, 2, 10)
		assert.True(t, d.Degenerate())
		assert.InDelta(t, 2*7.0/(10*1.4), d.Lo, 1e-12)
	})

	t.Run("fractional frames bracket floor and ceil", func(t *testing.T) {
		r := VelocityRange(1, 1.3, 8, tol)
		assert.False(t, r.Degenerate())
		assert.InDelta(t, 1/(7.0/8)-tol, r.Lo, 1e-12)
		assert.InDelta(t, 1/(6.0/8)+tol, r.Hi, 1e-12)
		assert.True(t, r.Lo < 1.3 && 1.3 < r.Hi)
		assert.Nil(t, r.Warning)
	})

	t.Run("less than one frame warns and collapses to ceil", func(t *testing.T) {
		r := VelocityRange(0.1, 2, 8, tol)
		assert.True(t, r.Degenerate())
		assert.InDelta(t, 0.8, r.Lo, 1e-12)
		require.NotNil(t, r.Warning)
		assert.True(t, errors.Is(r.Warning, ErrUnreliableMeasurement))
		assert.Equal(t, "velocity", r.Warning.Quantity)
	})
}

func TestVelocityRangeIntegralProperty(t *testing.T) {
	muteLogs(t)
	// distance/v*fps is whole for all of these combinations.
	cases := []struct{ distance, v, fps float64 }{
		{1, 1, 8}, {2, 1, 10}, {1, 0.5, 16}, {0.5, 1.25, 10}, {1.5, 1.5, 25}, {3, 1.2, 8},
	}
	for _, c := range cases {
		r := VelocityRange(c.distance, c.v, c.fps, 1e-4)
		assert.True(t, r.Degenerate(), "velocity range for %+v", c)
		d := DensityRange(c.distance, c.v, c.fps, 1e-4, 10, 10)
		assert.True(t, d.Degenerate(), "density range for %+v", c)
	}
}

func TestDensityRange(t *testing.T) {
	muteLogs(t)
	const tol = 1e-4

	t.Run("integral frames", func(t *testing.T) {
		r := DensityRange(1, 1.25, 10, tol, 10, 10)
		assert.True(t, r.Degenerate())
		assert.InDelta(t, 0.8, r.Lo, 1e-12)
	})

	t.Run("fractional frames", func(t *testing.T) {
		r := DensityRange(1, 1.3, 8, tol, 5, 12.375)
		assert.InDelta(t, 5*0.75/12.375-tol, r.Lo, 1e-12)
		assert.InDelta(t, 5*0.875/12.375+tol, r.Hi, 1e-12)
	})

	t.Run("zero pedestrians", func(t *testing.T) {
		r := DensityRange(1, 1.3, 8, tol, 0, 12.375)
		assert.True(t, r.Accepts(0, tol))
	})

	t.Run("unreliable regime warns", func(t *testing.T) {
		r := DensityRange(0.1, 2, 8, tol, 5, 10)
		require.NotNil(t, r.Warning)
		assert.Equal(t, "density", r.Warning.Quantity)
	})
}

func TestRangeAccepts(t *testing.T) {
	point := Range{Lo: 1.3, Hi: 1.3}
	assert.True(t, point.Accepts(1.30005, 1e-4))
	assert.False(t, point.Accepts(1.3002, 1e-4))
	assert.False(t, point.Accepts(math.NaN(), 1e-4))

	band := Range{Lo: 1.1, Hi: 1.4}
	assert.True(t, band.Accepts(1.1, 1e-4))
	assert.True(t, band.Accepts(1.4, 1e-4))
	assert.False(t, band.Accepts(1.40005, 1e-4))
	assert.False(t, band.Accepts(math.Inf(1), 1e-4))

	infPoint := Range{Lo: math.Inf(1), Hi: math.Inf(1)}
	assert.True(t, infPoint.Accepts(math.Inf(1), 1e-4))

	assert.Equal(t, "1.3000", point.String())
	assert.Equal(t, "[1.1000, 1.4000]", band.String())
}
