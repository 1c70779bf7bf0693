package kinematics

import (
	"fmt"
	"math"
)

// Grid describes a rectangular grid of pedestrians. Column 0 starts at StartX;
// each further column starts Spacing metres behind the previous one. All
// columns move with Velocity along +x.
type Grid struct {
	Columns       int     // number of columns (pedestrians in x)
	PedsPerColumn int     // rows replicated in y
	Spacing       float64 // distance between columns, m
	StartX        float64 // x of column 0 at frame 0, m
	Velocity      float64 // m/s
	FPS           float64 // frames per second of the trajectory
	NumFrames     int     // frames in the trajectory
}

// Column is one vertical line of pedestrians sharing an x-position.
type Column struct {
	Index  int
	StartX float64
}

// Validate checks the grid parameters for values the oracle cannot model.
func (g Grid) Validate() error {
	if g.Columns <= 0 {
		return fmt.Errorf("columns must be positive, got %d", g.Columns)
	}
	if g.PedsPerColumn <= 0 {
		return fmt.Errorf("peds_per_column must be positive, got %d", g.PedsPerColumn)
	}
	if g.Spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %f", g.Spacing)
	}
	if g.Velocity <= 0 || math.IsInf(g.Velocity, 0) || math.IsNaN(g.Velocity) {
		return fmt.Errorf("velocity must be positive and finite, got %f", g.Velocity)
	}
	if g.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", g.FPS)
	}
	if g.NumFrames <= 0 {
		return fmt.Errorf("num_frames must be positive, got %d", g.NumFrames)
	}
	return nil
}

// Column returns column i.
func (g Grid) Column(i int) Column {
	return Column{Index: i, StartX: g.StartX - float64(i)*g.Spacing}
}

// NumPeds is the total number of pedestrians in the grid.
func (g Grid) NumPeds() int {
	return g.Columns * g.PedsPerColumn
}

// Position returns the x-position of column col at time t seconds.
func (g Grid) Position(col int, t float64) float64 {
	return g.StartX - float64(col)*g.Spacing + g.Velocity*t
}

// PositionAtFrame returns the x-position of column col at frame.
func (g Grid) PositionAtFrame(col, frame int) float64 {
	return g.StartX - float64(col)*g.Spacing + float64(frame)*g.Velocity/g.FPS
}

// FramePositions returns the position-at-frame function for one column.
func (g Grid) FramePositions(col int) func(frame int) float64 {
	return func(frame int) float64 {
		return g.PositionAtFrame(col, frame)
	}
}

// DistPerFrame is the distance a column covers between two frames.
func (g Grid) DistPerFrame() float64 {
	return g.Velocity / g.FPS
}

// DistPerInterval is the distance a column covers over frames frames.
func (g Grid) DistPerInterval(frames int) float64 {
	return g.Velocity * float64(frames) / g.FPS
}

// FramesPerDistance is the (generally non-integral) number of frames a
// column needs to cover distance.
func (g Grid) FramesPerDistance(distance float64) float64 {
	return distance / g.Velocity * g.FPS
}
