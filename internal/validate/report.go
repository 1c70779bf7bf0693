package validate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Diagnostic is the outcome of one sub-check of a scenario.
type Diagnostic struct {
	Method  string // "E", "F", "G" or "H"
	Subject string // "line 2", "polygon 0", "dt", or empty
	Check   string // "flow", "density (area)", "shape of flow file", ...
	Err     error  // nil when the check passed
}

// Passed reports whether the check succeeded.
func (d Diagnostic) Passed() bool { return d.Err == nil }

func (d Diagnostic) String() string {
	subject := ""
	if d.Subject != "" {
		subject = " " + d.Subject
	}
	if d.Err == nil {
		return fmt.Sprintf("method %s%s: correct %s", d.Method, subject, d.Check)
	}
	return fmt.Sprintf("method %s%s: %s: %v", d.Method, subject, d.Check, d.Err)
}

// Series pairs an expected series with the values the pipeline wrote, for
// plotting. Actual is nil when the file could not be read.
type Series struct {
	Method   string
	Subject  string
	Quantity string
	Expected []float64
	Actual   []float64
}

// Name is a stable identifier used for plot file names and chart titles.
func (s Series) Name() string {
	if s.Subject == "" {
		return fmt.Sprintf("method_%s_%s", s.Method, s.Quantity)
	}
	return fmt.Sprintf("method_%s_%s_%s", s.Method, s.Subject, s.Quantity)
}

// Report is the verdict for one scenario.
type Report struct {
	RunID       uuid.UUID
	Scenario    string
	Trajectory  string
	StartedAt   time.Time
	Duration    time.Duration
	Diagnostics []Diagnostic
	Series      []Series
	// Warnings name expected ranges derived where the pipeline sees less
	// than one frame per span. They do not fail the report.
	Warnings []string
	// Fatal is set when a missing output file aborted the scenario.
	Fatal error
}

// NewReport starts an empty report with a fresh run id.
func NewReport(scenario, trajectory string, startedAt time.Time) *Report {
	return &Report{
		RunID:      uuid.New(),
		Scenario:   scenario,
		Trajectory: trajectory,
		StartedAt:  startedAt,
	}
}

// Passed is the conjunction of all sub-checks.
func (r *Report) Passed() bool {
	if r.Fatal != nil {
		return false
	}
	for _, d := range r.Diagnostics {
		if !d.Passed() {
			return false
		}
	}
	return true
}

// Failures returns the failed sub-checks.
func (r *Report) Failures() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if !d.Passed() {
			out = append(out, d)
		}
	}
	return out
}
