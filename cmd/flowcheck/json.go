package main

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
)

// jsonFloat encodes NaN and infinities as the strings the pipeline writes.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"nan"`), nil
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func jsonFloats(vs []float64) []jsonFloat {
	if vs == nil {
		return nil
	}
	out := make([]jsonFloat, len(vs))
	for i, v := range vs {
		out[i] = jsonFloat(v)
	}
	return out
}

type jsonDiagnostic struct {
	Method  string `json:"method"`
	Subject string `json:"subject,omitempty"`
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Error   string `json:"error,omitempty"`
}

type jsonSeries struct {
	Name     string      `json:"name"`
	Quantity string      `json:"quantity"`
	Expected []jsonFloat `json:"expected"`
	Actual   []jsonFloat `json:"actual,omitempty"`
}

type jsonOutcome struct {
	File        string           `json:"file"`
	Scenario    string           `json:"scenario,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Error       string           `json:"error,omitempty"`
	Fatal       string           `json:"fatal,omitempty"`
	DurationMS  int64            `json:"duration_ms"`
	Warnings    []string         `json:"warnings,omitempty"`
	Diagnostics []jsonDiagnostic `json:"diagnostics,omitempty"`
	Series      []jsonSeries     `json:"series,omitempty"`
}

func writeJSON(w io.Writer, outcomes []*outcome) error {
	out := make([]jsonOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		j := jsonOutcome{File: o.path, ExitCode: o.exitCode()}
		j.Passed = j.ExitCode == exitOK
		if o.scenario != nil {
			j.Scenario = o.scenario.Name
		}
		if o.err != nil {
			j.Error = o.err.Error()
		} else if o.sideErr != nil {
			j.Error = o.sideErr.Error()
		}
		if r := o.report; r != nil {
			j.RunID = r.RunID.String()
			j.DurationMS = r.Duration.Milliseconds()
			if r.Fatal != nil {
				j.Fatal = r.Fatal.Error()
			}
			j.Warnings = r.Warnings
			for _, d := range r.Diagnostics {
				jd := jsonDiagnostic{Method: d.Method, Subject: d.Subject, Check: d.Check, Passed: d.Passed()}
				if d.Err != nil {
					jd.Error = d.Err.Error()
				}
				j.Diagnostics = append(j.Diagnostics, jd)
			}
			for _, s := range r.Series {
				j.Series = append(j.Series, jsonSeries{
					Name:     s.Name(),
					Quantity: s.Quantity,
					Expected: jsonFloats(s.Expected),
					Actual:   jsonFloats(s.Actual),
				})
			}
		}
		out = append(out, j)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
