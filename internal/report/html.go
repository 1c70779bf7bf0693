package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/validate"
)

// missing is the ECharts placeholder for a gap in a line.
const missing = "-"

// WriteHTML renders a summary bar chart plus one line chart per series of
// every report into a single page at path.
func WriteHTML(fsys fsutil.FileSystem, path string, reports []*validate.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}

	page := components.NewPage()
	page.PageTitle = "flowcheck"
	page.AddCharts(summaryChart(reports))
	charted := 0
	for _, r := range reports {
		for _, s := range r.Series {
			page.AddCharts(seriesChart(r, s))
			charted++
		}
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render error: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Infof("[report] wrote %s (%d scenarios, %d charts)", path, len(reports), charted)
	return nil
}

func summaryChart(reports []*validate.Report) *charts.Bar {
	names := make([]string, 0, len(reports))
	passed := make([]opts.BarData, 0, len(reports))
	failed := make([]opts.BarData, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.Scenario)
		nFailed := len(r.Failures())
		if r.Fatal != nil {
			nFailed++
		}
		passed = append(passed, opts.BarData{Value: len(r.Diagnostics) - len(r.Failures())})
		failed = append(failed, opts.BarData{Value: nFailed})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sub-checks per scenario"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("passed", passed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2ca02c"})).
		AddSeries("failed", failed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"})).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "checks"}))
	return bar
}

func seriesChart(r *validate.Report, s validate.Series) *charts.Line {
	n := max(len(s.Expected), len(s.Actual))
	x := make([]string, n)
	for i := range x {
		x[i] = strconv.Itoa(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: s.Name(), Subtitle: r.Scenario}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "index"}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.Quantity}),
	)
	line.SetXAxis(x).
		AddSeries("expected", lineData(s.Expected, n),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"})).
		AddSeries("actual", lineData(s.Actual, n))
	return line
}

// lineData pads values to n entries and replaces non-finite values with the
// ECharts gap marker.
func lineData(values []float64, n int) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		if i >= len(values) || math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			out[i] = opts.LineData{Value: missing}
			continue
		}
		out[i] = opts.LineData{Value: values[i]}
	}
	return out
}
