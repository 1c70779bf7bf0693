package validate

import (
	"fmt"
	"math"
	"slices"

	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

func lineSubject(id int) string { return fmt.Sprintf("line %d", id) }

// checkE checks per-frame density in the area, then flow, specific flow and
// per-frame velocity for each line.
func (c *run) checkE(e *oracle.EResult) error {
	rho, err := c.load("", c.file("rho"))
	if err != nil {
		return err
	}
	frames := len(e.InArea)
	if c.shape("", "number of frames for density values", rho, frames, 3) {
		c.values("", "density (delta x)", e.DensityDx, rho.Col(1, frames, 3))
		c.values("", "density (area)", e.DensityArea, rho.Col(2, frames, 3))
	}

	for _, l := range e.Lines {
		subject := lineSubject(l.Line.ID)
		flow, err := c.load(subject, c.lineFile("flow", l.Line.ID))
		if err != nil {
			return err
		}
		vel, err := c.load(subject, c.lineFile("v", l.Line.ID))
		if err != nil {
			return err
		}
		if c.shape(subject, "number of time intervals for flow values", flow, e.Intervals, 2) {
			c.values(subject, "flow", l.Flow, flow.Col(0, e.Intervals, 2))
			c.values(subject, "specific flow", l.SpecificFlow, flow.Col(1, e.Intervals, 2))
		}
		rows := len(l.Velocity)
		if c.shape(subject, "number of frames for velocity values", vel, rows, 2) {
			c.values(subject, "velocity", l.Velocity, vel.Col(1, rows, 2))
		}
	}
	return nil
}

// checkF checks the per-pedestrian velocities and ids, then pedestrian
// counts, density, flow and specific flow for each line.
func (c *run) checkF(f *oracle.FResult) error {
	vel, err := c.load("", c.file("v"))
	if err != nil {
		return err
	}
	if vel != nil {
		rows, cols := vel.Dims()
		if rows > 0 && cols != 2 {
			c.record("", "columns of velocity file", &ShapeMismatchError{Path: vel.Path, WantRows: rows, WantCols: 2, GotRows: rows, GotCols: cols})
		} else {
			speeds := vel.Col(1, rows, 2)
			want := make([]tolerance.Range, rows)
			for i := range want {
				want[i] = f.Velocity
			}
			c.ranges("", "velocity", want, speeds)
			c.record("", "pedestrian ids", checkPedIDs(vel.Col(0, rows, 2), f.PedIDs))
		}
	}

	for _, l := range f.Lines {
		subject := lineSubject(l.Line.ID)
		t, err := c.load(subject, c.lineFile("rho_flow", l.Line.ID))
		if err != nil {
			return err
		}
		n := f.Intervals
		if !c.shape(subject, "number of time intervals", t, n, 4) {
			continue
		}
		c.record(subject, "number of pedestrians counted",
			c.mismatch(subject, "number of pedestrians", compareValues(toFloats(l.PassCounts), t.Col(0, n, 4), 0)))
		c.values(subject, "flow", l.Flow, t.Col(2, n, 4))
		c.values(subject, "specific flow", l.SpecificFlow, t.Col(3, n, 4))
		c.ranges(subject, "density", l.Density, t.Col(1, n, 4))
	}
	return nil
}

func checkPedIDs(got []float64, want []int) error {
	ids := make([]int, len(got))
	for i, v := range got {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: pedestrian id %g is not an integer", ErrValueMismatch, v)
		}
		ids[i] = int(v)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, want) {
		return fmt.Errorf("%w: wrong pedestrian ids for velocity: got %v, want %v", ErrValueMismatch, ids, want)
	}
	return nil
}

// checkG checks the polygon strips over the long intervals, then velocity,
// density and flow over the short sub-intervals.
func (c *run) checkG(g *oracle.GResult) error {
	vel, err := c.load("", c.file("v"))
	if err != nil {
		return err
	}
	rho, err := c.load("", c.file("rho"))
	if err != nil {
		return err
	}
	dt, err := c.load("dt", c.file("rho_flow_v"))
	if err != nil {
		return err
	}

	n, m := len(g.Polygons), g.Intervals
	if c.shape("", "number of velocity values for dx (fixed place)", vel, n, m) &&
		c.shape("", "number of density values for dx (fixed place)", rho, n, m) {
		for _, p := range g.Polygons {
			subject := fmt.Sprintf("polygon %d", p.Index)
			c.polygonVelocity(subject, p, vel.Row(p.Index, n, m))
			c.polygonDensity(subject, p, rho.Row(p.Index, n, m))
		}
	}

	rows := len(g.DtCounts)
	if c.shape("dt", "number of time intervals for dt (fixed time)", dt, rows, 3) {
		c.values("dt", "velocity", g.DtVelocity, dt.Col(0, rows, 3))
		c.values("dt", "density", g.DtDensity, dt.Col(1, rows, 3))
		c.values("dt", "flow", g.DtFlow, dt.Col(2, rows, 3))
	}
	return nil
}

// polygonVelocity expects NaN for intervals in which nobody traversed the
// strip and a value within the velocity range otherwise.
func (c *run) polygonVelocity(subject string, p oracle.GPolygon, got []float64) {
	var ms []Mismatch
	mid := make([]float64, len(p.Counts))
	for i, count := range p.Counts {
		if count == 0 {
			mid[i] = math.NaN()
			if !math.IsNaN(got[i]) {
				ms = append(ms, Mismatch{Index: i, Expected: "NaN", Actual: got[i]})
			}
			continue
		}
		mid[i] = centre(p.Velocity.Lo, p.Velocity.Hi)
		if !p.Velocity.Accepts(got[i], c.v.tol()) {
			ms = append(ms, Mismatch{Index: i, Expected: p.Velocity.String(), Actual: got[i]})
		}
	}
	c.addSeries(subject, "velocity for dx (fixed place)", mid, got)
	c.record(subject, "velocity for dx (fixed place)", c.mismatch(subject, "velocity", ms))
}

// polygonDensity checks the strip density against its range. Mismatches
// against a proper range also name the density of the exact crossing time.
func (c *run) polygonDensity(subject string, p oracle.GPolygon, got []float64) {
	const quantity = "density for dx (fixed place)"
	ms := compareRanges(p.Density, got, c.v.tol())
	for k, mm := range ms {
		if i := mm.Index; i < len(p.NominalDensity) && !p.Density[i].Degenerate() {
			ms[k].Expected = fmt.Sprintf("%s around %s", mm.Expected, formatValue(p.NominalDensity[i]))
		}
	}
	c.addSeries(subject, quantity, p.NominalDensity, got)
	c.record(subject, quantity, c.mismatch(subject, quantity, ms))
}

// checkH checks time-averaged flow, density and velocity per interval.
func (c *run) checkH(h *oracle.HResult) error {
	t, err := c.load("", c.file("flow_rho_v"))
	if err != nil {
		return err
	}
	n := h.Intervals
	if c.shape("", "number of time intervals", t, n, 3) {
		c.values("", "flow", h.Flow, t.Col(0, n, 3))
		c.values("", "density", h.Density, t.Col(1, n, 3))
		c.values("", "velocity", h.Velocity, t.Col(2, n, 3))
	}
	return nil
}
