// Package boundary classifies how a moving pedestrian column overlaps a fixed
// interval on the x axis.
//
// The oracles sample column positions on a coarse grid (one step per time
// interval, or one per frame). Within a coarse step the pipeline can only
// resolve crossings to the frame, so whenever a step enters or leaves the
// interval the exact crossing point is recovered by seeking over the frames
// inside the step.
//
// Comparisons against interval edges treat positions within CloseTol of an
// edge as sitting on it, masking floating rounding at the measurement
// boundary.
package boundary
