// Package assert checks internal invariants in instrumented builds.
//
// Checks compile to nothing unless the module is built with the orqdebug tag:
//
//	go test -tags orqdebug ./...
package assert

import "fmt"

// That panics with the formatted message if cond is false and checks are
// enabled.
func That(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("orq: invariant violated: "+format, args...))
	}
}
