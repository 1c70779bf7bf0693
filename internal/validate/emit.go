package validate

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/security"
)

// Emitter writes expected series as reference tables in the pipeline's file
// layout, so that the output of the oracle can be diffed against, or fed
// back into, the validator. Range-valued quantities are written at the
// centre of their range.
type Emitter struct {
	FS         fsutil.FileSystem
	Root       string
	Trajectory string
	AreaID     int
}

// Write emits every method present in exp and returns the written paths.
func (em *Emitter) Write(exp Expected) ([]string, error) {
	var written []string
	emit := func(path, header string, rows [][]float64) error {
		if err := security.ValidatePathWithinDirectory(path, em.Root); err != nil {
			return err
		}
		if err := em.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := em.FS.WriteFile(path, formatTable(header, rows), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if e := exp.E; e != nil {
		rows := make([][]float64, len(e.InArea))
		for f := range rows {
			rows[f] = []float64{float64(f), e.DensityDx[f], e.DensityArea[f]}
		}
		if err := emit(em.file(MethodE, "rho"), "frame\tdensity_dx\tdensity_area", rows); err != nil {
			return written, err
		}
		for _, l := range e.Lines {
			flow := make([][]float64, e.Intervals)
			for i := range flow {
				flow[i] = []float64{l.Flow[i], l.SpecificFlow[i]}
			}
			if err := emit(em.lineFile(MethodE, "flow", l.Line.ID), "flow\tspecific_flow", flow); err != nil {
				return written, err
			}
			vel := make([][]float64, len(l.Velocity))
			for i := range vel {
				vel[i] = []float64{float64(l.Frames[i]), l.Velocity[i]}
			}
			if err := emit(em.lineFile(MethodE, "v", l.Line.ID), "frame\tvelocity", vel); err != nil {
				return written, err
			}
		}
	}

	if f := exp.F; f != nil {
		vel := make([][]float64, len(f.PedIDs))
		for i, id := range f.PedIDs {
			vel[i] = []float64{float64(id), centre(f.Velocity.Lo, f.Velocity.Hi)}
		}
		if err := emit(em.file(MethodF, "v"), "ped_id\tvelocity", vel); err != nil {
			return written, err
		}
		for _, l := range f.Lines {
			rows := make([][]float64, f.Intervals)
			for i := range rows {
				rows[i] = []float64{float64(l.PassCounts[i]), centre(l.Density[i].Lo, l.Density[i].Hi), l.Flow[i], l.SpecificFlow[i]}
			}
			if err := emit(em.lineFile(MethodF, "rho_flow", l.Line.ID), "num_peds\tdensity\tflow\tspecific_flow", rows); err != nil {
				return written, err
			}
		}
	}

	if g := exp.G; g != nil {
		vel := make([][]float64, len(g.Polygons))
		rho := make([][]float64, len(g.Polygons))
		for k, p := range g.Polygons {
			vel[k] = make([]float64, g.Intervals)
			rho[k] = make([]float64, g.Intervals)
			for i, count := range p.Counts {
				vel[k][i] = math.NaN()
				if count > 0 {
					vel[k][i] = centre(p.Velocity.Lo, p.Velocity.Hi)
				}
				rho[k][i] = centre(p.Density[i].Lo, p.Density[i].Hi)
			}
		}
		if err := emit(em.file(MethodG, "v"), "velocity per polygon (rows) and interval (columns)", vel); err != nil {
			return written, err
		}
		if err := emit(em.file(MethodG, "rho"), "density per polygon (rows) and interval (columns)", rho); err != nil {
			return written, err
		}
		dt := make([][]float64, len(g.DtCounts))
		for i := range dt {
			dt[i] = []float64{g.DtVelocity[i], g.DtDensity[i], g.DtFlow[i]}
		}
		if err := emit(em.file(MethodG, "rho_flow_v"), "velocity\tdensity\tflow", dt); err != nil {
			return written, err
		}
	}

	if h := exp.H; h != nil {
		rows := make([][]float64, h.Intervals)
		for i := range rows {
			rows[i] = []float64{h.Flow[i], h.Density[i], h.Velocity[i]}
		}
		if err := emit(em.file(MethodH, "flow_rho_v"), "flow\tdensity\tvelocity", rows); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (em *Emitter) file(m Method, metric string) string {
	return FilePath(em.Root, m, metric, em.Trajectory, em.AreaID)
}

func (em *Emitter) lineFile(m Method, metric string, lineID int) string {
	return LineFilePath(em.Root, m, metric, em.Trajectory, em.AreaID, lineID)
}

func centre(lo, hi float64) float64 {
	return (lo + hi) / 2
}

func formatTable(header string, rows [][]float64) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", header)
	for _, row := range rows {
		for j, v := range row {
			if j > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(formatCell(v))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func formatCell(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
