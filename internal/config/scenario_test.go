package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/testutil"
)

const scenarioDir = "../../config/scenarios"

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioYAML(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "E04_with_inf_1.3ms.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "E04_with_inf_1.3ms", s.Name)
	assert.Equal(t, "traj.txt", s.Trajectory)
	assert.Equal(t, DefaultAreaID, s.GetAreaID())
	assert.Equal(t, DefaultOutputRoot, s.GetOutputRoot())
	assert.Equal(t, DefaultAbsTolerance, s.GetAbsTolerance())

	p, err := s.EParams()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 99, p.IntervalFrames)
	assert.Equal(t, boundary.ExitGrace, p.Policy)
	assert.Len(t, p.Lines, 3)
	assert.Equal(t, 4, p.Lines[2].ID)
	assert.Equal(t, 1.0, p.Area.DeltaX())

	f, err := s.FParams()
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestLoadScenarioJSON(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "all_methods_1ms.json"))
	require.NoError(t, err)

	g, err := s.KinematicGrid()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.Velocity, 1e-12, "3.6 km/h is 1 m/s")

	f, err := s.FParams()
	require.NoError(t, err)
	assert.Equal(t, 50, f.IntervalFrames)

	gp, err := s.GParams()
	require.NoError(t, err)
	assert.Equal(t, 20, gp.DtFrames)
	assert.Equal(t, 2, gp.Polygons.Count)

	h, err := s.HParams()
	require.NoError(t, err)
	assert.Equal(t, boundary.HalfOpen, h.Policy)
}

func TestLoadScenarioDefaultsNameFromFile(t *testing.T) {
	path := writeScenario(t, "unnamed.yml", `
trajectory: t.txt
grid: {columns: 1, peds_per_column: 1, spacing: 1, start_x: 0, velocity: 1, fps: 10, num_frames: 20}
methods:
  H: {delta_t_frames: 5, area: {x0: 0, x1: 1, delta_y: 1}}
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", s.Name)
}

func TestLoadScenarioErrors(t *testing.T) {
	valid := `trajectory: t.txt
grid: {columns: 1, peds_per_column: 1, spacing: 1, start_x: 0, velocity: 1, fps: 10, num_frames: 20}
`
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "s.toml", valid, "extension"},
		{"no methods", "s.yaml", valid, "at least one"},
		{"no trajectory", "s.yaml", "grid: {columns: 1}\nmethods: {H: {delta_t_frames: 5}}\n", "trajectory"},
		{"path in trajectory", "s.yaml", strings.Replace(valid, "t.txt", "../t.txt", 1) + "methods: {H: {delta_t_frames: 5, area: {x0: 0, x1: 1}}}\n", "file name"},
		{"bad unit", "s.yaml", strings.Replace(valid, "velocity: 1,", "velocity: 1, velocity_unit: knots,", 1) + "methods: {H: {delta_t_frames: 5, area: {x0: 0, x1: 1}}}\n", "unknown speed unit"},
		{"interval mismatch", "s.yaml", valid + "methods: {H: {delta_t_frames: 5, delta_t_seconds: 1, area: {x0: 0, x1: 1}}}\n", "does not match"},
		{"fractional interval", "s.yaml", valid + "methods: {H: {delta_t_seconds: 0.15, area: {x0: 0, x1: 1}}}\n", "whole number"},
		{"missing interval", "s.yaml", valid + "methods: {H: {area: {x0: 0, x1: 1}}}\n", "delta_t_frames or delta_t_seconds"},
		{"bad policy", "s.yaml", valid + "methods: {H: {delta_t_frames: 5, edge_policy: sideways, area: {x0: 0, x1: 1}}}\n", "unknown edge policy"},
		{"inverted area", "s.yaml", valid + "methods: {H: {delta_t_frames: 5, area: {x0: 2, x1: 1}}}\n", "greater than"},
		{"bad grid", "s.yaml", strings.Replace(valid, "fps: 10", "fps: 0", 1) + "methods: {H: {delta_t_frames: 5, area: {x0: 0, x1: 1}}}\n", "fps"},
		{"bad json", "s.json", "{", "failed to parse"},
		{"G without delta_t_seconds", "s.yaml", valid + "methods: {G: {dt_frames: 5, area: {x0: 0, x1: 1}, polygons: {x0: 0, width: 1, count: 1}}}\n", "positive"},
		{"G interval longer than trajectory", "s.yaml", valid + "methods: {G: {delta_t_seconds: 1000, dt_frames: 5, area: {x0: 0, x1: 1}, polygons: {x0: 0, width: 1, count: 1}}}\n", "no complete interval"},
		{"zero dt", "s.yaml", valid + "methods: {G: {delta_t_seconds: 1, dt_frames: 0, area: {x0: 0, x1: 1}, polygons: {x0: 0, width: 1, count: 1}}}\n", "dt_frames"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestLoadScenarioTooLarge(t *testing.T) {
	path := writeScenario(t, "big.json", strings.Repeat(" ", maxFileSize+1))
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestSampleScenariosRunOracles(t *testing.T) {
	testutil.MuteLogs(t)
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		m, err := filepath.Glob(filepath.Join(scenarioDir, pattern))
		require.NoError(t, err)
		paths = append(paths, m...)
	}
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			ran := 0
			if p, err := s.EParams(); assert.NoError(t, err) && p != nil {
				_, err = oracle.MethodE(*p)
				assert.NoError(t, err)
				ran++
			}
			if p, err := s.FParams(); assert.NoError(t, err) && p != nil {
				_, err = oracle.MethodF(*p)
				assert.NoError(t, err)
				ran++
			}
			if p, err := s.GParams(); assert.NoError(t, err) && p != nil {
				_, err = oracle.MethodG(*p)
				assert.NoError(t, err)
				ran++
			}
			if p, err := s.HParams(); assert.NoError(t, err) && p != nil {
				_, err = oracle.MethodH(*p)
				assert.NoError(t, err)
				ran++
			}
			assert.Positive(t, ran)
		})
	}
}
