package validate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/timeutil"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// Expected bundles the oracle results of one scenario. Nil members are not
// checked.
type Expected struct {
	E *oracle.EResult
	F *oracle.FResult
	G *oracle.GResult
	H *oracle.HResult
}

// Warnings lists the distinct unreliable-measurement warnings attached to
// the expected ranges, in method order.
func (e Expected) Warnings() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(method Method, rs ...tolerance.Range) {
		for _, r := range rs {
			if r.Warning == nil {
				continue
			}
			msg := fmt.Sprintf("method %s: %v", method, r.Warning)
			if !seen[msg] {
				seen[msg] = true
				out = append(out, msg)
			}
		}
	}
	if e.F != nil {
		add(MethodF, e.F.Velocity)
		for _, l := range e.F.Lines {
			add(MethodF, l.Density...)
		}
	}
	if e.G != nil {
		for _, p := range e.G.Polygons {
			add(MethodG, p.Velocity)
			add(MethodG, p.Density...)
		}
	}
	return out
}

// Validator checks the files a pipeline wrote under Root against expected
// series.
type Validator struct {
	FS           fsutil.FileSystem
	Root         string // directory holding Fundamental_Diagram/
	Trajectory   string // trajectory file name as it appears in output names
	AreaID       int
	AbsTolerance float64
	Clock        timeutil.Clock
}

// Validate runs every check for the methods present in exp. All sub-checks
// run and accumulate; only a missing output file stops the scenario early,
// in which case Report.Fatal is set.
func (v *Validator) Validate(scenario string, exp Expected) *Report {
	clock := v.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	r := NewReport(scenario, v.Trajectory, start)
	defer func() { r.Duration = clock.Since(start) }()
	r.Warnings = exp.Warnings()

	steps := []struct {
		method Method
		run    func(*run) error
		skip   bool
	}{
		{MethodE, func(c *run) error { return c.checkE(exp.E) }, exp.E == nil},
		{MethodF, func(c *run) error { return c.checkF(exp.F) }, exp.F == nil},
		{MethodG, func(c *run) error { return c.checkG(exp.G) }, exp.G == nil},
		{MethodH, func(c *run) error { return c.checkH(exp.H) }, exp.H == nil},
	}
	for _, s := range steps {
		if s.skip {
			continue
		}
		monitoring.Infof("[validate] ===== Method %s =====", s.method)
		c := &run{v: v, r: r, method: s.method}
		if err := s.run(c); err != nil {
			monitoring.Criticalf("[validate] %s: %v", scenario, err)
			r.Fatal = err
			return r
		}
	}
	return r
}

func (v *Validator) tol() float64 {
	if v.AbsTolerance > 0 {
		return v.AbsTolerance
	}
	return DefaultAbsTolerance
}

// run carries the state of one method's checks.
type run struct {
	v      *Validator
	r      *Report
	method Method
}

func (c *run) file(metric string) string {
	return FilePath(c.v.Root, c.method, metric, c.v.Trajectory, c.v.AreaID)
}

func (c *run) lineFile(metric string, lineID int) string {
	return LineFilePath(c.v.Root, c.method, metric, c.v.Trajectory, c.v.AreaID, lineID)
}

func (c *run) record(subject, check string, err error) {
	d := Diagnostic{Method: string(c.method), Subject: subject, Check: check, Err: err}
	c.r.Diagnostics = append(c.r.Diagnostics, d)
	if err == nil {
		monitoring.Infof("[validate] %v", d)
		return
	}
	monitoring.Criticalf("[validate] %s", d.String())
	var vm *ValueMismatchError
	if errors.As(err, &vm) {
		for _, m := range vm.Mismatches {
			monitoring.Criticalf("[validate] method %s %s %s[%d] = %g, want %s",
				c.method, subject, check, m.Index, m.Actual, m.Expected)
		}
	}
}

// load reads a table. A missing file is returned as the fatal error; any
// other problem is recorded and yields a nil table.
func (c *run) load(subject, path string) (*Table, error) {
	t, err := LoadTable(c.v.FS, path)
	var missing *MissingOutputError
	if errors.As(err, &missing) {
		return nil, err
	}
	if err != nil {
		c.record(subject, "parse "+filepath.Base(path), err)
		return nil, nil
	}
	return t, nil
}

// shape records whether t fits rows×cols and reports the result.
func (c *run) shape(subject, check string, t *Table, rows, cols int) bool {
	if t == nil {
		return false
	}
	if t.Fits(rows, cols) {
		c.record(subject, check, nil)
		return true
	}
	gr, gc := t.Dims()
	c.record(subject, check, &ShapeMismatchError{Path: t.Path, WantRows: rows, WantCols: cols, GotRows: gr, GotCols: gc})
	return false
}

func (c *run) mismatch(subject, quantity string, ms []Mismatch) error {
	if len(ms) == 0 {
		return nil
	}
	return &ValueMismatchError{Method: string(c.method), Quantity: quantity, Subject: subject, Mismatches: ms}
}

// values compares got to want element-wise.
func (c *run) values(subject, quantity string, want, got []float64) {
	c.addSeries(subject, quantity, want, got)
	c.record(subject, quantity, c.mismatch(subject, quantity, compareValues(want, got, c.v.tol())))
}

// ranges checks every got[i] against want[i].
func (c *run) ranges(subject, quantity string, want []tolerance.Range, got []float64) {
	mid := make([]float64, len(want))
	for i, r := range want {
		mid[i] = centre(r.Lo, r.Hi)
	}
	c.addSeries(subject, quantity, mid, got)
	c.record(subject, quantity, c.mismatch(subject, quantity, compareRanges(want, got, c.v.tol())))
}

func (c *run) addSeries(subject, quantity string, want, got []float64) {
	c.r.Series = append(c.r.Series, Series{
		Method:   string(c.method),
		Subject:  subject,
		Quantity: quantity,
		Expected: want,
		Actual:   got,
	})
}
