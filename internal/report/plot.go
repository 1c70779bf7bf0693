// Package report renders validation series as PNG plots and a single HTML
// page so a failing scenario can be inspected without reading .dat files.
package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/security"
	"github.com/banshee-data/flowcheck/internal/validate"
)

var (
	expectedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	actualColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Plotter writes one PNG per series of a report into Dir.
type Plotter struct {
	FS     fsutil.FileSystem
	Dir    string
	Width  vg.Length
	Height vg.Length
}

// NewPlotter returns a Plotter with the default 10x4 inch canvas.
func NewPlotter(fsys fsutil.FileSystem, dir string) *Plotter {
	return &Plotter{FS: fsys, Dir: dir, Width: 10 * vg.Inch, Height: 4 * vg.Inch}
}

// Plot renders every series of r and returns the written paths. Series with
// no finite value in either curve are skipped.
func (p *Plotter) Plot(r *validate.Report) ([]string, error) {
	dir := filepath.Join(p.Dir, security.SanitizeFilename(r.Scenario))
	if err := p.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot dir: %w", err)
	}

	var written []string
	for _, s := range r.Series {
		path := filepath.Join(dir, security.SanitizeFilename(s.Name())+".png")
		if err := security.ValidatePathWithinDirectory(path, p.Dir); err != nil {
			return written, err
		}
		ok, err := p.plotSeries(s, path)
		if err != nil {
			return written, fmt.Errorf("plot %s: %w", s.Name(), err)
		}
		if ok {
			written = append(written, path)
		}
	}
	monitoring.Infof("[report] wrote %d plots for %s to %s", len(written), r.Scenario, dir)
	return written, nil
}

func (p *Plotter) plotSeries(s validate.Series, path string) (bool, error) {
	expected := finitePoints(s.Expected)
	actual := finitePoints(s.Actual)
	if len(expected) == 0 && len(actual) == 0 {
		return false, nil
	}

	pl := plot.New()
	pl.Title.Text = s.Name()
	pl.X.Label.Text = "Index"
	pl.Y.Label.Text = s.Quantity
	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10

	if len(expected) > 0 {
		line, err := plotter.NewLine(expected)
		if err != nil {
			return false, err
		}
		line.Color = expectedColor
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		pl.Add(line)
		pl.Legend.Add("expected", line)
	}
	if len(actual) > 0 {
		line, points, err := plotter.NewLinePoints(actual)
		if err != nil {
			return false, err
		}
		line.Color = actualColor
		line.Width = vg.Points(1)
		points.Color = actualColor
		points.Radius = vg.Points(1.5)
		pl.Add(line, points)
		pl.Legend.Add("actual", line, points)
	}

	wt, err := pl.WriterTo(p.Width, p.Height, "png")
	if err != nil {
		return false, err
	}
	f, err := p.FS.Create(path)
	if err != nil {
		return false, err
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}

// finitePoints indexes a series, dropping NaN and infinite values.
func finitePoints(values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: v})
	}
	return pts
}
