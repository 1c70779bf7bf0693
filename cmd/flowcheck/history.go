package main

import (
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/store"
)

// printHistory lists the newest stored runs, with the failed sub-checks of
// each. Scenario files narrow the listing to their scenarios.
func printHistory(opts *options, paths []string, stdout, stderr io.Writer) int {
	names := []string{""}
	if len(paths) > 0 {
		names = names[:0]
		for _, path := range paths {
			s, err := config.LoadScenario(path)
			if err != nil {
				fmt.Fprintf(stderr, "flowcheck: %v\n", err)
				return exitUsage
			}
			names = append(names, s.Name)
		}
	}

	db, err := store.Open(opts.dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "flowcheck: %v\n", err)
		return exitUsage
	}
	defer db.Close()

	for _, name := range names {
		runs, err := db.Runs(name, opts.history)
		if err != nil {
			fmt.Fprintf(stderr, "flowcheck: %v\n", err)
			return exitFailure
		}
		if len(runs) == 0 && name != "" {
			fmt.Fprintf(stdout, "%s: no stored runs\n", name)
		}
		for _, r := range runs {
			if err := printRun(db, r, stdout); err != nil {
				fmt.Fprintf(stderr, "flowcheck: %v\n", err)
				return exitFailure
			}
		}
	}
	return exitOK
}

func printRun(db *store.DB, r store.Run, stdout io.Writer) error {
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL"
	}
	fmt.Fprintf(stdout, "%s  %s  %s  %s (%s)\n", verdict, r.StartedAt.Local().Format(time.DateTime), r.Scenario, r.RunID, r.Duration)
	if r.Fatal != "" {
		fmt.Fprintf(stdout, "      %s\n", r.Fatal)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(stdout, "      warning: %s\n", w)
	}
	if r.Passed {
		return nil
	}
	diags, err := db.Diagnostics(r.RunID)
	if err != nil {
		return err
	}
	for _, d := range diags {
		if d.Passed {
			continue
		}
		subject := ""
		if d.Subject != "" {
			subject = " " + d.Subject
		}
		fmt.Fprintf(stdout, "      method %s%s: %s: %s\n", d.Method, subject, d.Check, d.Message)
	}
	return nil
}
