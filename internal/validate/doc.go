// Package validate checks the tables a pedestrian-flow pipeline writes
// against the series computed by package oracle.
//
// A scenario's checks all run and accumulate into one Report. A missing
// output file is the only fatal condition: it means the pipeline failed
// upstream of measurement correctness, so the scenario stops there.
package validate
