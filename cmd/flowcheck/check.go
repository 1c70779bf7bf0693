package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/report"
	"github.com/banshee-data/flowcheck/internal/security"
	"github.com/banshee-data/flowcheck/internal/store"
	"github.com/banshee-data/flowcheck/internal/timeutil"
	"github.com/banshee-data/flowcheck/internal/validate"
)

// outcome is the result of one scenario file.
type outcome struct {
	path     string
	scenario *config.Scenario
	report   *validate.Report
	written  []string
	err      error // scenario could not be loaded or computed
	sideErr  error // plots, store or emission failed
}

func (o *outcome) exitCode() int {
	switch {
	case o.err != nil:
		return exitUsage
	case o.report != nil && errors.Is(o.report.Fatal, validate.ErrMissingOutput):
		return exitMissingOutput
	case o.report != nil && !o.report.Passed(), o.sideErr != nil:
		return exitFailure
	}
	return exitOK
}

// worst combines exit codes; a usage error outranks a missing output, which
// outranks a failed check.
func worst(a, b int) int {
	if b > a {
		return b
	}
	return a
}

// buildExpected runs the oracles of the methods configured in s and selected
// by only.
func buildExpected(s *config.Scenario, only map[validate.Method]bool) (validate.Expected, error) {
	var exp validate.Expected
	if only[validate.MethodE] {
		p, err := s.EParams()
		if err != nil {
			return exp, err
		}
		if p != nil {
			if exp.E, err = oracle.MethodE(*p); err != nil {
				return exp, fmt.Errorf("method E: %w", err)
			}
		}
	}
	if only[validate.MethodF] {
		p, err := s.FParams()
		if err != nil {
			return exp, err
		}
		if p != nil {
			if exp.F, err = oracle.MethodF(*p); err != nil {
				return exp, fmt.Errorf("method F: %w", err)
			}
		}
	}
	if only[validate.MethodG] {
		p, err := s.GParams()
		if err != nil {
			return exp, err
		}
		if p != nil {
			if exp.G, err = oracle.MethodG(*p); err != nil {
				return exp, fmt.Errorf("method G: %w", err)
			}
		}
	}
	if only[validate.MethodH] {
		p, err := s.HParams()
		if err != nil {
			return exp, err
		}
		if p != nil {
			if exp.H, err = oracle.MethodH(*p); err != nil {
				return exp, fmt.Errorf("method H: %w", err)
			}
		}
	}
	if exp.E == nil && exp.F == nil && exp.G == nil && exp.H == nil {
		return exp, errors.New("no configured method is selected by -methods")
	}
	return exp, nil
}

// forEach loads every scenario and calls fn on it concurrently, at most
// opts.parallel at a time. Outcomes keep the order of paths.
func forEach(ctx context.Context, opts *options, paths []string, fn func(*outcome, validate.Expected)) []*outcome {
	outcomes := make([]*outcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallel)
	for i, path := range paths {
		o := &outcome{path: path}
		outcomes[i] = o
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.err = fmt.Errorf("%s: panic: %v", path, r)
					monitoring.Criticalf("[flowcheck] %v", o.err)
				}
			}()
			if err := ctx.Err(); err != nil {
				o.err = err
				return nil
			}
			o.scenario, o.err = config.LoadScenario(path)
			if o.err != nil {
				monitoring.Criticalf("[flowcheck] %v", o.err)
				return nil
			}
			exp, err := buildExpected(o.scenario, opts.methods)
			if err != nil {
				o.err = fmt.Errorf("%s: %w", o.scenario.Name, err)
				monitoring.Criticalf("[flowcheck] %v", o.err)
				return nil
			}
			fn(o, exp)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func checkAll(ctx context.Context, opts *options, paths []string, stdout, stderr io.Writer) int {
	var db *store.DB
	if opts.dbPath != "" {
		var err error
		if db, err = store.Open(opts.dbPath); err != nil {
			fmt.Fprintf(stderr, "flowcheck: %v\n", err)
			return exitUsage
		}
		defer db.Close()
	}

	fsys := fsutil.OSFileSystem{}
	clock := timeutil.RealClock{}
	outcomes := forEach(ctx, opts, paths, func(o *outcome, exp validate.Expected) {
		s := o.scenario
		root := s.GetOutputRoot()
		if opts.output != "" {
			root = opts.output
		}
		v := &validate.Validator{
			FS:           fsys,
			Root:         root,
			Trajectory:   s.Trajectory,
			AreaID:       s.GetAreaID(),
			AbsTolerance: s.GetAbsTolerance(),
			Clock:        clock,
		}
		o.report = v.Validate(s.Name, exp)

		if db != nil {
			if err := db.InsertReport(o.report); err != nil {
				o.sideErr = errors.Join(o.sideErr, err)
			}
		}
		if opts.plotsDir != "" {
			if _, err := report.NewPlotter(fsys, opts.plotsDir).Plot(o.report); err != nil {
				o.sideErr = errors.Join(o.sideErr, err)
			}
		}
	})

	if opts.htmlPath != "" {
		var reports []*validate.Report
		for _, o := range outcomes {
			if o.report != nil {
				reports = append(reports, o.report)
			}
		}
		if err := report.WriteHTML(fsys, opts.htmlPath, reports); err != nil {
			fmt.Fprintf(stderr, "flowcheck: %v\n", err)
			return worst(summarize(opts, outcomes, stdout), exitFailure)
		}
	}
	return summarize(opts, outcomes, stdout)
}

func emitAll(ctx context.Context, opts *options, paths []string, stdout, stderr io.Writer) int {
	fsys := fsutil.OSFileSystem{}
	outcomes := forEach(ctx, opts, paths, func(o *outcome, exp validate.Expected) {
		s := o.scenario
		em := &validate.Emitter{
			FS:         fsys,
			Root:       filepath.Join(opts.emitDir, security.SanitizeFilename(s.Name)),
			Trajectory: s.Trajectory,
			AreaID:     s.GetAreaID(),
		}
		o.written, o.sideErr = em.Write(exp)
		monitoring.Infof("[flowcheck] %s: wrote %d reference tables under %s", s.Name, len(o.written), em.Root)
	})

	code := exitOK
	for _, o := range outcomes {
		code = worst(code, o.exitCode())
		switch {
		case o.err != nil:
			fmt.Fprintf(stderr, "flowcheck: %v\n", o.err)
		case o.sideErr != nil:
			fmt.Fprintf(stderr, "flowcheck: %s: %v\n", o.scenario.Name, o.sideErr)
		default:
			for _, p := range o.written {
				fmt.Fprintln(stdout, p)
			}
		}
	}
	return code
}

// summarize prints one verdict per scenario and returns the exit code.
func summarize(opts *options, outcomes []*outcome, stdout io.Writer) int {
	code := exitOK
	for _, o := range outcomes {
		code = worst(code, o.exitCode())
	}
	if opts.jsonOut {
		if err := writeJSON(stdout, outcomes); err != nil {
			monitoring.Criticalf("[flowcheck] writing json: %v", err)
			return worst(code, exitFailure)
		}
		return code
	}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			fmt.Fprintf(stdout, "ERROR %s: %v\n", o.path, o.err)
		case o.report.Fatal != nil:
			fmt.Fprintf(stdout, "FAIL  %s: %v\n", o.scenario.Name, o.report.Fatal)
		case !o.report.Passed():
			failures := o.report.Failures()
			fmt.Fprintf(stdout, "FAIL  %s: %d of %d checks failed\n", o.scenario.Name, len(failures), len(o.report.Diagnostics))
			for _, d := range failures {
				fmt.Fprintf(stdout, "      %s\n", d)
			}
		default:
			fmt.Fprintf(stdout, "PASS  %s (%d checks, %s)\n", o.scenario.Name, len(o.report.Diagnostics), o.report.Duration.Round(time.Millisecond))
		}
		if o.report != nil {
			for _, w := range o.report.Warnings {
				fmt.Fprintf(stdout, "      warning: %s\n", w)
			}
		}
		if o.sideErr != nil {
			fmt.Fprintf(stdout, "      %v\n", o.sideErr)
		}
	}
	return code
}
