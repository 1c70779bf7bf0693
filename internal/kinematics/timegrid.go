package kinematics

import (
	"fmt"
	"math"
)

// integralEps guards integrality tests against floating noise such as
// 1.4 / 0.2 = 6.999999999999999.
const integralEps = 1e-9

// IsIntegral reports whether x is a whole number up to floating noise.
func IsIntegral(x float64) bool {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return false
	}
	return math.Abs(x-math.Round(x)) <= integralEps*math.Max(1, math.Abs(x))
}

// NumTimeIntervals returns how many complete intervals of intervalFrames the
// pipeline evaluates in a trajectory of numFrames frames. When the frames
// divide evenly the last interval is dropped, because it would end on a frame
// that does not exist.
func NumTimeIntervals(numFrames, intervalFrames int) int {
	if intervalFrames <= 0 || numFrames <= 0 {
		return 0
	}
	if numFrames%intervalFrames == 0 {
		return numFrames/intervalFrames - 1
	}
	return numFrames / intervalFrames
}

// TimeGrid partitions the frame axis into intervals of IntervalFrames.
type TimeGrid struct {
	NumFrames      int
	IntervalFrames int
	FPS            float64
}

// IntervalFramesFromSeconds converts an interval length in seconds to frames.
// The product must be a positive whole number of frames.
func IntervalFramesFromSeconds(seconds, fps float64) (int, error) {
	frames := seconds * fps
	if !(frames > 0) {
		return 0, fmt.Errorf("interval must be positive, got %gs at %g fps", seconds, fps)
	}
	if !IsIntegral(frames) {
		return 0, fmt.Errorf("interval of %gs at %g fps is %g frames, not a whole number", seconds, fps, frames)
	}
	return int(math.Round(frames)), nil
}

// Intervals is the number of complete intervals.
func (tg TimeGrid) Intervals() int {
	return NumTimeIntervals(tg.NumFrames, tg.IntervalFrames)
}

// IntervalSeconds is the interval length in seconds.
func (tg TimeGrid) IntervalSeconds() float64 {
	return float64(tg.IntervalFrames) / tg.FPS
}

// Bounds returns the first and last frame of interval i. Consecutive
// intervals share their boundary frame.
func (tg TimeGrid) Bounds(i int) (start, end int) {
	start = i * tg.IntervalFrames
	return start, start + tg.IntervalFrames
}
