// Command flowcheck computes the expected output of a pedestrian-flow
// measurement pipeline for synthetic grid trajectories and checks the files
// the pipeline wrote against it.
//
// Usage:
//
//	flowcheck [flags] scenario.{json,yaml} ...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/validate"
	"github.com/banshee-data/flowcheck/internal/version"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitMissingOutput = 2
	exitUsage         = 3
)

type options struct {
	output      string
	methods     map[validate.Method]bool
	dbPath      string
	plotsDir    string
	htmlPath    string
	emitDir     string
	jsonOut     bool
	quiet       bool
	showVersion bool
	parallel    int
	history     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitoring.SetLogger(log.New(os.Stderr, "", log.LstdFlags).Printf)
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("flowcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: flowcheck [flags] scenario.{json,yaml} ...")
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.output, "output", "", "Pipeline output root (overrides the scenario's output_root)")
	methods := fs.String("methods", defaultMethods(), "Comma-separated subset of methods to check")
	fs.StringVar(&opts.dbPath, "db", "", "SQLite database to record verdicts in")
	fs.StringVar(&opts.plotsDir, "plots", "", "Directory for expected-vs-actual PNG plots")
	fs.StringVar(&opts.htmlPath, "html", "", "Write an HTML report to this file")
	fs.StringVar(&opts.emitDir, "emit", "", "Write expected reference tables under this directory instead of validating")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print verdicts and expected series as JSON")
	fs.BoolVar(&opts.quiet, "quiet", false, "Only log warnings and failures")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.IntVar(&opts.parallel, "parallel", runtime.NumCPU(), "Maximum number of scenarios checked concurrently")
	fs.IntVar(&opts.history, "history", 0, "List the last N runs stored in -db (of the given scenarios, or all) and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	parsed, err := parseMethods(*methods)
	if err != nil {
		return nil, nil, err
	}
	opts.methods = parsed
	if opts.parallel < 1 {
		return nil, nil, fmt.Errorf("-parallel must be at least 1, got %d", opts.parallel)
	}
	if opts.history < 0 {
		return nil, nil, fmt.Errorf("-history must not be negative, got %d", opts.history)
	}
	if opts.history > 0 && opts.dbPath == "" {
		return nil, nil, fmt.Errorf("-history needs -db")
	}
	return opts, fs.Args(), nil
}

func defaultMethods() string {
	names := make([]string, len(validate.AllMethods))
	for i, m := range validate.AllMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}

// parseMethods turns "E,h" into a method set.
func parseMethods(s string) (map[validate.Method]bool, error) {
	out := make(map[validate.Method]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := validate.ParseMethod(part)
		if err != nil {
			return nil, err
		}
		out[m] = true
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("-methods selects no method")
	}
	return out, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, paths, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintf(stderr, "flowcheck: %v\n", err)
		return exitUsage
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}
	monitoring.SetQuiet(opts.quiet)
	defer monitoring.SetQuiet(false)

	if opts.history > 0 {
		return printHistory(opts, paths, stdout, stderr)
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "flowcheck: no scenario files given")
		return exitUsage
	}

	if opts.emitDir != "" {
		return emitAll(ctx, opts, paths, stdout, stderr)
	}
	return checkAll(ctx, opts, paths, stdout, stderr)
}
