package boundary

import "fmt"

// EdgePolicy decides whether a column sampled at a single frame occupies an
// area [a, b]. Pipelines differ in which frame they take as a pedestrian's
// entry and exit time, and that choice shows up as which edge frames count.
type EdgePolicy int

const (
	// ExitGrace counts the closed area plus a column that has just stepped
	// over b on this frame without having been on b the frame before.
	ExitGrace EdgePolicy = iota
	// EntryGrace is the mirror of ExitGrace: it additionally counts a column
	// that will step onto or over a on the next frame.
	EntryGrace
	// Closed counts the closed area [a, b].
	Closed
	// HalfOpen counts [a, b): a column sitting on the entry edge is inside,
	// one sitting on the exit edge has already left.
	HalfOpen
)

var policyNames = map[EdgePolicy]string{
	ExitGrace:  "exit_grace",
	EntryGrace: "entry_grace",
	Closed:     "closed",
	HalfOpen:   "half_open",
}

func (p EdgePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("EdgePolicy(%d)", int(p))
}

// ParseEdgePolicy maps a configuration name to a policy.
func ParseEdgePolicy(name string) (EdgePolicy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown edge policy %q (valid: exit_grace, entry_grace, closed, half_open)", name)
}

// Occupies reports whether a column at x occupies [a, b] under policy p.
// dpf is the distance the column moves per frame.
func Occupies(x, a, b, dpf float64, p EdgePolicy) bool {
	onEdge := Close(x, a) || Close(x, b)
	inside := x >= a && x <= b
	switch p {
	case HalfOpen:
		return (x >= a || Close(x, a)) && x < b && !Close(x, b)
	case Closed:
		return onEdge || inside
	case EntryGrace:
		return onEdge || inside || (x < a && x > a-dpf && !Close(x+dpf, a))
	default:
		return onEdge || inside || (x > b && x < b+dpf && !Close(x-dpf, b))
	}
}
