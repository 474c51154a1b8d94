// Package monitoring holds the process-wide diagnostic logger shared by the
// solver, the run store and the command line.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// tests and embedding programs redirect or mute it with SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. A nil f mutes logging.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
