// Package geometry holds the fixed measurement geometry of a scenario:
// counting lines, rectangular measurement areas and contiguous polygon strips
// cut from an area. Areas are axis aligned and never rotated; only their
// extent along the direction of motion (x) matters to the oracle.
package geometry

import "fmt"

// Line is a counting line at x, identified by the id the pipeline uses in
// its output file names.
type Line struct {
	ID int     `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
}

// Area is a measurement area spanning [X0, X1] in the direction of motion
// and DeltaY across it.
type Area struct {
	X0     float64 `json:"x0" yaml:"x0"`
	X1     float64 `json:"x1" yaml:"x1"`
	DeltaY float64 `json:"delta_y" yaml:"delta_y"`
}

// DeltaX is the length of the area in the direction of motion.
func (a Area) DeltaX() float64 {
	return a.X1 - a.X0
}

// Validate rejects empty or inverted areas.
func (a Area) Validate() error {
	if a.X1 <= a.X0 {
		return fmt.Errorf("area x1 (%g) must be greater than x0 (%g)", a.X1, a.X0)
	}
	if a.DeltaY < 0 {
		return fmt.Errorf("area delta_y must be non-negative, got %g", a.DeltaY)
	}
	return nil
}

// PolygonSet is Count contiguous strips of Width each, starting at X0.
type PolygonSet struct {
	X0     float64 `json:"x0" yaml:"x0"`
	Width  float64 `json:"width" yaml:"width"`
	Count  int     `json:"count" yaml:"count"`
	DeltaY float64 `json:"delta_y" yaml:"delta_y"`
}

// Polygon returns strip i as an area.
func (p PolygonSet) Polygon(i int) Area {
	return Area{
		X0:     p.X0 + float64(i)*p.Width,
		X1:     p.X0 + float64(i+1)*p.Width,
		DeltaY: p.DeltaY,
	}
}

// Validate rejects empty polygon sets.
func (p PolygonSet) Validate() error {
	if p.Count <= 0 {
		return fmt.Errorf("polygon count must be positive, got %d", p.Count)
	}
	if p.Width <= 0 {
		return fmt.Errorf("polygon width must be positive, got %g", p.Width)
	}
	return nil
}
