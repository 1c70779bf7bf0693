package boundary

import "math"

// Kind names the way one coarse step overlaps an interval [a, b].
type Kind int

const (
	NoOverlap      Kind = iota
	Contained           // starts on a and ends on b
	EntersAt            // starts on a, ends past it
	ExitsAt             // ends on b
	StrictlyInside      // both ends strictly inside
	Straddles           // starts before a and ends past b without touching either
	PartialEntry        // crosses a only
	PartialExit         // crosses b only
)

var kindNames = [...]string{
	NoOverlap:      "no_overlap",
	Contained:      "contained",
	EntersAt:       "enters_at",
	ExitsAt:        "exits_at",
	StrictlyInside: "strictly_inside",
	Straddles:      "straddles",
	PartialEntry:   "partial_entry",
	PartialExit:    "partial_exit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Step is one column's motion over the frames [StartFrame, EndFrame].
type Step struct {
	Pos        PositionFunc
	StartFrame int
	EndFrame   int
}

// X0 is the position at the start of the step.
func (s Step) X0() float64 { return s.Pos(s.StartFrame) }

// X1 is the position at the end of the step.
func (s Step) X1() float64 { return s.Pos(s.EndFrame) }

// firstAtOrPast is the position of the first frame in the step at or past x.
func (s Step) firstAtOrPast(x float64) float64 {
	return s.Pos(Seek(s.Pos, s.StartFrame, s.EndFrame, x, Forward))
}

// lastAtOrBefore is the position of the last frame in the step at or before x.
func (s Step) lastAtOrBefore(x float64) float64 {
	return s.Pos(Seek(s.Pos, s.StartFrame, s.EndFrame, x, Backward))
}

// Outcome is the result of classifying a step. Distance is the distance the
// column travels inside the interval as the pipeline resolves it; it is zero
// when Counted is false.
type Outcome struct {
	Kind     Kind
	Counted  bool
	Distance float64
}

type rule struct {
	kind    Kind
	matches func(x0, x1, a, b float64) bool
	// resolve returns whether the step is counted and the distance covered
	// inside [a, b].
	resolve func(s Step, x0, x1, a, b float64) (bool, float64)
}

// rules is evaluated top to bottom; the first match wins. The order is the
// tie-break between overlapping cases and must not change.
var rules = []rule{
	{
		kind:    Contained,
		matches: func(x0, x1, a, b float64) bool { return Close(x0, a) && Close(x1, b) },
		resolve: func(_ Step, _, _, a, b float64) (bool, float64) {
			return true, b - a
		},
	},
	{
		kind:    EntersAt,
		matches: func(x0, x1, a, _ float64) bool { return Close(x0, a) && x1 > a },
		resolve: func(s Step, x0, _, _, b float64) (bool, float64) {
			return true, s.lastAtOrBefore(b) - x0
		},
	},
	{
		kind:    ExitsAt,
		matches: func(x0, x1, _, b float64) bool { return x0 < b && Close(x1, b) },
		resolve: func(s Step, _, x1, a, _ float64) (bool, float64) {
			return true, x1 - s.firstAtOrPast(a)
		},
	},
	{
		kind:    StrictlyInside,
		matches: func(x0, x1, a, b float64) bool { return x0 > a && x1 < b },
		resolve: func(_ Step, x0, x1, _, _ float64) (bool, float64) {
			return true, x1 - x0
		},
	},
	{
		kind: Straddles,
		matches: func(x0, x1, a, b float64) bool {
			return x0 < a && x1 > b && !Close(x0, a) && !Close(x1, b)
		},
		resolve: func(s Step, _, _, a, b float64) (bool, float64) {
			// clamped for intervals narrower than one frame of motion
			return true, math.Max(0, s.lastAtOrBefore(b)-s.firstAtOrPast(a))
		},
	},
	{
		kind:    PartialEntry,
		matches: func(x0, x1, a, _ float64) bool { return x0 < a && x1 > a && !Close(x1, a) },
		resolve: func(s Step, _, x1, a, _ float64) (bool, float64) {
			entry := s.firstAtOrPast(a)
			if Close(entry, x1) {
				// first frame inside is the last frame of the step
				return false, 0
			}
			return true, x1 - entry
		},
	},
	{
		kind:    PartialExit,
		matches: func(x0, x1, _, b float64) bool { return x0 < b && x1 > b && !Close(x0, b) },
		resolve: func(s Step, x0, _, _, b float64) (bool, float64) {
			return true, s.firstAtOrPast(b) - x0
		},
	},
}

// Classify resolves how step s overlaps [a, b].
func Classify(s Step, a, b float64) Outcome {
	x0, x1 := s.X0(), s.X1()
	for _, r := range rules {
		if r.matches(x0, x1, a, b) {
			counted, d := r.resolve(s, x0, x1, a, b)
			if !counted {
				d = 0
			}
			return Outcome{Kind: r.kind, Counted: counted, Distance: d}
		}
	}
	return Outcome{Kind: NoOverlap}
}

// Crosses reports whether a step from x0 to x1 passes the line at x,
// including steps that start or end on it.
func Crosses(x0, x1, x float64) bool {
	return (x0 <= x || Close(x0, x)) && (x1 >= x || Close(x1, x))
}

// Spans reports whether a step from x0 to x1 covers the whole of [a, b].
func Spans(x0, x1, a, b float64) bool {
	return (x0 <= a || Close(x0, a)) && (x1 >= b || Close(x1, b))
}
