package validate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingOutput means the pipeline did not write an expected file.
	ErrMissingOutput = errors.New("pipeline output missing")
	// ErrShapeMismatch means an output table has the wrong dimensions.
	ErrShapeMismatch = errors.New("output shape mismatch")
	// ErrValueMismatch means output values fall outside tolerance.
	ErrValueMismatch = errors.New("output value mismatch")
)

// MissingOutputError is fatal for a scenario: nothing downstream of the
// missing file can be checked.
type MissingOutputError struct {
	Path string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("pipeline did not output results correctly: %s not found", e.Path)
}

func (e *MissingOutputError) Is(target error) bool { return target == ErrMissingOutput }

// ShapeMismatchError records a table whose dimensions differ from the
// expected cardinality.
type ShapeMismatchError struct {
	Path     string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
	Detail   string
}

func (e *ShapeMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: shape (%d, %d), want (%d, %d)", e.Path, e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// Mismatch is one offending value.
type Mismatch struct {
	Index    int
	Expected string
	Actual   float64
}

// ValueMismatchError collects the offending values of one check.
type ValueMismatchError struct {
	Method     string
	Quantity   string
	Subject    string // "line 2", "polygon 0", or empty for the whole area
	Mismatches []Mismatch
}

func (e *ValueMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "method %s: wrong %s values", e.Method, e.Quantity)
	if e.Subject != "" {
		fmt.Fprintf(&b, " (%s)", e.Subject)
	}
	for i, m := range e.Mismatches {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Mismatches)-i)
			break
		}
		fmt.Fprintf(&b, "; [%d] got %g, want %s", m.Index, m.Actual, m.Expected)
	}
	return b.String()
}

func (e *ValueMismatchError) Is(target error) bool { return target == ErrValueMismatch }
