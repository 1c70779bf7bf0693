// Package oracle derives the values a pedestrian-flow measurement pipeline
// must report for a constant-velocity grid of pedestrians.
//
// Each method has its own windowing strategy:
//
//	E  line passes per interval, per-frame density in an area
//	F  line passes per interval, per-pedestrian velocity over an area
//	G  full traversals of polygon strips, and distances covered per short interval
//	H  occupancy accumulated over the frames of an interval
//
// Every function here is pure: it reads a kinematics.Grid and the measurement
// geometry and returns fresh, index-addressable series. Divisions follow the
// pipeline: 0/0 is NaN and x/0 is ±Inf.
package oracle
