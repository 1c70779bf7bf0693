package boundary

import (
	"math"
	"sort"
)

// CloseTol is the absolute distance (m) within which a position counts as
// sitting on a boundary.
const CloseTol = 1e-5

// Close reports whether a and b are within CloseTol of each other.
func Close(a, b float64) bool {
	return math.Abs(a-b) <= CloseTol
}

// Direction selects which way Seek walks through a step.
type Direction int

const (
	// Forward finds the first frame at or past the target.
	Forward Direction = iota
	// Backward finds the last frame at or before the target.
	Backward
)

// PositionFunc gives a column's x-position at a frame. It must be
// non-decreasing in frame, which holds for every column of a grid with
// positive velocity.
type PositionFunc func(frame int) float64

// Seek locates the frame in [from, to] at which a column reaches target.
// Forward returns the first frame whose position is at or past target, or to
// if none is. Backward returns the last frame whose position is at or before
// target, or from if none is.
func Seek(pos PositionFunc, from, to int, target float64, dir Direction) int {
	if to < from {
		return from
	}
	n := to - from + 1
	switch dir {
	case Backward:
		i := sort.Search(n, func(i int) bool {
			x := pos(from + i)
			return x > target && !Close(x, target)
		})
		if i == 0 {
			return from
		}
		return from + i - 1
	default:
		i := sort.Search(n, func(i int) bool {
			x := pos(from + i)
			return x >= target || Close(x, target)
		})
		if i == n {
			return to
		}
		return from + i
	}
}
