// Package monitoring holds the process-wide diagnostic logger used by the
// oracle, the validator and the result store.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var quiet atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetQuiet suppresses Infof output. Warnings and critical messages are
// always emitted.
func SetQuiet(q bool) {
	quiet.Store(q)
}

// Infof logs a passing check or progress message.
func Infof(format string, v ...interface{}) {
	if quiet.Load() {
		return
	}
	Logf("INFO "+format, v...)
}

// Warnf logs a condition that does not fail a scenario.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING "+format, v...)
}

// Criticalf logs a failed check.
func Criticalf(format string, v ...interface{}) {
	Logf("CRITICAL "+format, v...)
}
