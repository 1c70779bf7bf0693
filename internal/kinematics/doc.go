// Package kinematics models the synthetic pedestrian grid the oracle reasons
// about: columns of pedestrians moving at one constant velocity along x, and
// the frame grid the measurement pipeline samples them on.
//
// Every function here is pure arithmetic. Oracles ask for positions at whole
// frames only; positions are computed directly from the frame index rather
// than by accumulating per-frame increments, so no rounding drift builds up
// over long trajectories.
package kinematics
