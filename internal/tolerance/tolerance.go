// Package tolerance derives the band of values a frame-based pipeline may
// legitimately report for a continuously moving pedestrian.
//
// A pedestrian crossing a span of d metres at v m/s needs d/v*fps frames, and
// that number is in general not whole. The pipeline only counts frames, so
// depending on where a pedestrian starts relative to the frame grid it sees
// either the frame count just below or just above the true value. Velocity
// and density are therefore only known to lie in a closed range; when the
// frame count is whole the range collapses to a single value.
//
// "Whole" is decided by kinematics.IsIntegral, which allows a relative slack
// of 1e-9 instead of exact integer equality: 1.4/0.2 evaluates to
// 6.999999999999999 in float64 and counts as 7 whole frames.
package tolerance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
)

// ErrUnreliableMeasurement marks a regime in which the pipeline cannot
// observe a full frame while crossing a span.
var ErrUnreliableMeasurement = errors.New("frame-based measurement unreliable")

// UnreliableMeasurementWarning describes a span too short for the velocity
// and frame rate: fewer than one whole frame elapses while crossing it.
type UnreliableMeasurementWarning struct {
	Quantity string // "velocity" or "density"
	Distance float64
	Velocity float64
	FPS      float64
	Frames   float64
}

func (w *UnreliableMeasurementWarning) Error() string {
	return fmt.Sprintf("pipeline might not detect %s correctly: crossing %gm at %gm/s and %g fps takes %.4f frames (minimum of detected frames is 0)",
		w.Quantity, w.Distance, w.Velocity, w.FPS, w.Frames)
}

// Is makes errors.Is(w, ErrUnreliableMeasurement) hold.
func (w *UnreliableMeasurementWarning) Is(target error) bool {
	return target == ErrUnreliableMeasurement
}

// Range is a closed interval of admissible measured values.
type Range struct {
	Lo, Hi float64
	// Warning is set when the range was derived in the unreliable regime.
	Warning *UnreliableMeasurementWarning
}

// Degenerate reports whether the range is a single value.
func (r Range) Degenerate() bool {
	return r.Lo == r.Hi
}

// Accepts reports whether v is admissible. A degenerate range accepts values
// within absTol of its single value; a proper range is already padded and
// accepts exactly [Lo, Hi]. NaN is never accepted.
func (r Range) Accepts(v, absTol float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if r.Degenerate() {
		return scalar.EqualWithinAbs(v, r.Lo, absTol)
	}
	return r.Lo <= v && v <= r.Hi
}

func (r Range) String() string {
	if r.Degenerate() {
		return fmt.Sprintf("%.4f", r.Lo)
	}
	return fmt.Sprintf("[%.4f, %.4f]", r.Lo, r.Hi)
}

// VelocityRange returns the velocities a pipeline may report for a
// pedestrian crossing distance at velocity v, recorded at fps, padded by
// absTol.
func VelocityRange(distance, v, fps, absTol float64) Range {
	frames := distance / v * fps
	if kinematics.IsIntegral(frames) {
		return Range{Lo: v, Hi: v}
	}

	maxSeconds := math.Ceil(frames) / fps
	if math.Floor(frames) == 0 {
		w := &UnreliableMeasurementWarning{Quantity: "velocity", Distance: distance, Velocity: v, FPS: fps, Frames: frames}
		monitoring.Warnf("[tolerance] %v", w)
		bound := distance / maxSeconds
		return Range{Lo: bound, Hi: bound, Warning: w}
	}

	minSeconds := math.Floor(frames) / fps
	return Range{
		Lo: distance/maxSeconds - absTol,
		Hi: distance/minSeconds + absTol,
	}
}

// DensityRange returns the densities a pipeline may report for numPeds
// pedestrians crossing distance at velocity v within an interval of
// intervalSeconds. It mirrors VelocityRange: the time each pedestrian spends
// in the span is known only to the whole frame.
func DensityRange(distance, v, fps, absTol float64, numPeds int, intervalSeconds float64) Range {
	frames := distance / v * fps
	n := float64(numPeds)
	denom := intervalSeconds * distance
	if kinematics.IsIntegral(frames) {
		density := (n * math.Round(frames) / fps) / denom
		return Range{Lo: density, Hi: density}
	}

	var w *UnreliableMeasurementWarning
	if math.Floor(frames) == 0 {
		w = &UnreliableMeasurementWarning{Quantity: "density", Distance: distance, Velocity: v, FPS: fps, Frames: frames}
		monitoring.Warnf("[tolerance] %v", w)
	}

	minSeconds := math.Floor(frames) / fps
	maxSeconds := math.Ceil(frames) / fps
	return Range{
		Lo:      (n*minSeconds)/denom - absTol,
		Hi:      (n*maxSeconds)/denom + absTol,
		Warning: w,
	}
}
