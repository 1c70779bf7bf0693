package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/flowcheck/internal/boundary"
	"github.com/banshee-data/flowcheck/internal/geometry"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/units"
)

// Defaults applied by the Get* accessors.
const (
	DefaultAbsTolerance = 1e-4
	DefaultAreaID       = 1
	DefaultOutputRoot   = "Output"
	DefaultEdgePolicyE  = "exit_grace"
	DefaultEdgePolicyH  = "half_open"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Scenario describes one synthetic trajectory and the measurement set-up the
// pipeline ran on it. Optional fields are pointers; the Get* methods supply
// defaults for fields the file omits.
type Scenario struct {
	Name         string   `json:"name" yaml:"name"`
	Trajectory   string   `json:"trajectory" yaml:"trajectory"`
	AreaID       *int     `json:"area_id,omitempty" yaml:"area_id,omitempty"`
	OutputRoot   *string  `json:"output_root,omitempty" yaml:"output_root,omitempty"`
	AbsTolerance *float64 `json:"abs_tolerance,omitempty" yaml:"abs_tolerance,omitempty"`

	Grid    GridConfig    `json:"grid" yaml:"grid"`
	Methods MethodsConfig `json:"methods" yaml:"methods"`
}

// GridConfig is the constant-velocity pedestrian grid.
type GridConfig struct {
	Columns       int     `json:"columns" yaml:"columns"`
	PedsPerColumn int     `json:"peds_per_column" yaml:"peds_per_column"`
	Spacing       float64 `json:"spacing" yaml:"spacing"`
	StartX        float64 `json:"start_x" yaml:"start_x"`
	Velocity      float64 `json:"velocity" yaml:"velocity"`
	VelocityUnit  *string `json:"velocity_unit,omitempty" yaml:"velocity_unit,omitempty"`
	FPS           float64 `json:"fps" yaml:"fps"`
	NumFrames     int     `json:"num_frames" yaml:"num_frames"`
}

// Interval is an interval length given in frames, in seconds, or both.
type Interval struct {
	Frames  *int     `json:"delta_t_frames,omitempty" yaml:"delta_t_frames,omitempty"`
	Seconds *float64 `json:"delta_t_seconds,omitempty" yaml:"delta_t_seconds,omitempty"`
}

// MethodsConfig enables methods; a nil entry is not checked.
type MethodsConfig struct {
	E *MethodEConfig `json:"E,omitempty" yaml:"E,omitempty"`
	F *MethodFConfig `json:"F,omitempty" yaml:"F,omitempty"`
	G *MethodGConfig `json:"G,omitempty" yaml:"G,omitempty"`
	H *MethodHConfig `json:"H,omitempty" yaml:"H,omitempty"`
}

// MethodEConfig holds the Method E measurement set-up.
type MethodEConfig struct {
	Interval   `yaml:",inline"`
	Lines      []geometry.Line `json:"lines" yaml:"lines"`
	Area       geometry.Area   `json:"area" yaml:"area"`
	EdgePolicy *string         `json:"edge_policy,omitempty" yaml:"edge_policy,omitempty"`
}

// MethodFConfig holds the Method F measurement set-up.
type MethodFConfig struct {
	Interval `yaml:",inline"`
	Lines    []geometry.Line `json:"lines" yaml:"lines"`
	Area     geometry.Area   `json:"area" yaml:"area"`
	PedIDs   []int           `json:"ped_ids,omitempty" yaml:"ped_ids,omitempty"`
}

// MethodGConfig holds the Method G measurement set-up.
type MethodGConfig struct {
	DeltaTSeconds float64             `json:"delta_t_seconds" yaml:"delta_t_seconds"`
	DtFrames      int                 `json:"dt_frames" yaml:"dt_frames"`
	DtSeconds     *float64            `json:"dt_seconds,omitempty" yaml:"dt_seconds,omitempty"`
	Area          geometry.Area       `json:"area" yaml:"area"`
	Polygons      geometry.PolygonSet `json:"polygons" yaml:"polygons"`
}

// MethodHConfig holds the Method H measurement set-up.
type MethodHConfig struct {
	Interval   `yaml:",inline"`
	Area       geometry.Area `json:"area" yaml:"area"`
	EdgePolicy *string       `json:"edge_policy,omitempty" yaml:"edge_policy,omitempty"`
}

// LoadScenario loads a scenario from a .json, .yaml or .yml file.
// The file is validated to ensure it has a known extension and is under the
// max file size.
func LoadScenario(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scenario file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s := &Scenario{}
	if ext == ".json" {
		err = json.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", cleanPath, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(cleanPath), filepath.Ext(cleanPath))
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", cleanPath, err)
	}
	return s, nil
}

// Validate checks that the scenario can be turned into oracle parameters.
func (s *Scenario) Validate() error {
	if s.Trajectory == "" {
		return errors.New("trajectory must be set")
	}
	if strings.ContainsAny(s.Trajectory, `/\`) {
		return fmt.Errorf("trajectory must be a file name, got %q", s.Trajectory)
	}
	if s.AbsTolerance != nil && *s.AbsTolerance <= 0 {
		return fmt.Errorf("abs_tolerance must be positive, got %g", *s.AbsTolerance)
	}
	if s.Methods.E == nil && s.Methods.F == nil && s.Methods.G == nil && s.Methods.H == nil {
		return errors.New("at least one of methods E, F, G, H must be configured")
	}
	g, err := s.KinematicGrid()
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	// Building every parameter set runs the remaining checks.
	if _, err := s.EParams(); err != nil {
		return err
	}
	if _, err := s.FParams(); err != nil {
		return err
	}
	if _, err := s.GParams(); err != nil {
		return err
	}
	if _, err := s.HParams(); err != nil {
		return err
	}
	return nil
}

// GetAreaID returns the area id used in output file names or the default.
func (s *Scenario) GetAreaID() int {
	if s.AreaID == nil {
		return DefaultAreaID
	}
	return *s.AreaID
}

// GetOutputRoot returns the pipeline output root or the default.
func (s *Scenario) GetOutputRoot() string {
	if s.OutputRoot == nil || *s.OutputRoot == "" {
		return DefaultOutputRoot
	}
	return *s.OutputRoot
}

// GetAbsTolerance returns the comparison tolerance or the default.
func (s *Scenario) GetAbsTolerance() float64 {
	if s.AbsTolerance == nil {
		return DefaultAbsTolerance
	}
	return *s.AbsTolerance
}

// GetVelocityUnit returns the unit of grid.velocity or the default.
func (g GridConfig) GetVelocityUnit() string {
	if g.VelocityUnit == nil || *g.VelocityUnit == "" {
		return units.MPS
	}
	return *g.VelocityUnit
}

// KinematicGrid converts the grid to m/s.
func (s *Scenario) KinematicGrid() (kinematics.Grid, error) {
	v, err := units.ToMPS(s.Grid.Velocity, s.Grid.GetVelocityUnit())
	if err != nil {
		return kinematics.Grid{}, fmt.Errorf("grid velocity: %w", err)
	}
	return kinematics.Grid{
		Columns:       s.Grid.Columns,
		PedsPerColumn: s.Grid.PedsPerColumn,
		Spacing:       s.Grid.Spacing,
		StartX:        s.Grid.StartX,
		Velocity:      v,
		FPS:           s.Grid.FPS,
		NumFrames:     s.Grid.NumFrames,
	}, nil
}

// Resolve returns the interval length in frames. When both frames and
// seconds are given they must agree at fps.
func (iv Interval) Resolve(fps float64) (int, error) {
	switch {
	case iv.Frames != nil && iv.Seconds != nil:
		frames, err := kinematics.IntervalFramesFromSeconds(*iv.Seconds, fps)
		if err != nil {
			return 0, err
		}
		if frames != *iv.Frames {
			return 0, fmt.Errorf("delta_t_frames %d does not match delta_t_seconds %g at %g fps", *iv.Frames, *iv.Seconds, fps)
		}
		return frames, nil
	case iv.Frames != nil:
		if *iv.Frames <= 0 {
			return 0, fmt.Errorf("delta_t_frames must be positive, got %d", *iv.Frames)
		}
		return *iv.Frames, nil
	case iv.Seconds != nil:
		return kinematics.IntervalFramesFromSeconds(*iv.Seconds, fps)
	}
	return 0, errors.New("delta_t_frames or delta_t_seconds must be set")
}

func edgePolicy(name *string, def string) (boundary.EdgePolicy, error) {
	if name == nil || *name == "" {
		return boundary.ParseEdgePolicy(def)
	}
	return boundary.ParseEdgePolicy(*name)
}

// EParams builds the Method E oracle input. It returns nil when E is not
// configured.
func (s *Scenario) EParams() (*oracle.EParams, error) {
	e := s.Methods.E
	if e == nil {
		return nil, nil
	}
	g, err := s.KinematicGrid()
	if err != nil {
		return nil, err
	}
	frames, err := e.Resolve(g.FPS)
	if err != nil {
		return nil, fmt.Errorf("method E: %w", err)
	}
	policy, err := edgePolicy(e.EdgePolicy, DefaultEdgePolicyE)
	if err != nil {
		return nil, fmt.Errorf("method E: %w", err)
	}
	if err := e.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method E: %w", err)
	}
	return &oracle.EParams{Grid: g, IntervalFrames: frames, Lines: e.Lines, Area: e.Area, Policy: policy}, nil
}

// FParams builds the Method F oracle input.
func (s *Scenario) FParams() (*oracle.FParams, error) {
	f := s.Methods.F
	if f == nil {
		return nil, nil
	}
	g, err := s.KinematicGrid()
	if err != nil {
		return nil, err
	}
	frames, err := f.Resolve(g.FPS)
	if err != nil {
		return nil, fmt.Errorf("method F: %w", err)
	}
	if err := f.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method F: %w", err)
	}
	return &oracle.FParams{
		Grid:           g,
		IntervalFrames: frames,
		Lines:          f.Lines,
		Area:           f.Area,
		AbsTolerance:   s.GetAbsTolerance(),
		PedIDs:         f.PedIDs,
	}, nil
}

// GParams builds the Method G oracle input.
func (s *Scenario) GParams() (*oracle.GParams, error) {
	gc := s.Methods.G
	if gc == nil {
		return nil, nil
	}
	g, err := s.KinematicGrid()
	if err != nil {
		return nil, err
	}
	if gc.DtFrames <= 0 {
		return nil, fmt.Errorf("method G: dt_frames must be positive, got %d", gc.DtFrames)
	}
	if gc.DtSeconds != nil {
		frames, err := kinematics.IntervalFramesFromSeconds(*gc.DtSeconds, g.FPS)
		if err != nil || frames != gc.DtFrames {
			return nil, fmt.Errorf("method G: dt_frames %d does not match dt_seconds %g at %g fps", gc.DtFrames, *gc.DtSeconds, g.FPS)
		}
	}
	frames, err := kinematics.IntervalFramesFromSeconds(gc.DeltaTSeconds, g.FPS)
	if err != nil {
		return nil, fmt.Errorf("method G: delta_t_seconds: %w", err)
	}
	if kinematics.NumTimeIntervals(g.NumFrames, frames) == 0 {
		return nil, fmt.Errorf("method G: %d frames hold no complete interval of %d frames", g.NumFrames, frames)
	}
	if err := gc.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	if err := gc.Polygons.Validate(); err != nil {
		return nil, fmt.Errorf("method G: %w", err)
	}
	return &oracle.GParams{
		Grid:          g,
		DeltaTSeconds: gc.DeltaTSeconds,
		DtFrames:      gc.DtFrames,
		Area:          gc.Area,
		Polygons:      gc.Polygons,
		AbsTolerance:  s.GetAbsTolerance(),
	}, nil
}

// HParams builds the Method H oracle input.
func (s *Scenario) HParams() (*oracle.HParams, error) {
	h := s.Methods.H
	if h == nil {
		return nil, nil
	}
	g, err := s.KinematicGrid()
	if err != nil {
		return nil, err
	}
	frames, err := h.Resolve(g.FPS)
	if err != nil {
		return nil, fmt.Errorf("method H: %w", err)
	}
	policy, err := edgePolicy(h.EdgePolicy, DefaultEdgePolicyH)
	if err != nil {
		return nil, fmt.Errorf("method H: %w", err)
	}
	if err := h.Area.Validate(); err != nil {
		return nil, fmt.Errorf("method H: %w", err)
	}
	return &oracle.HParams{Grid: g, IntervalFrames: frames, Area: h.Area, Policy: policy}, nil
}
