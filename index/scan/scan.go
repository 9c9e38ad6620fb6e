// Package scan provides a sequential-scan range query index.
//
// Scan tests every record against the window. It has no structure to keep
// consistent and serves as the reference the other indexes are checked against.
package scan

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
)

// Compile-time checks to ensure Scan satisfies required interfaces.
var _ index.Inserter[int] = (*Scan[int])(nil)
var _ index.Clearer = (*Scan[int])(nil)

// Scan is a sequential-scan index.
type Scan[R any] struct {
	key     index.KeyFunc[R]
	records []R
}

// New creates an empty Scan.
func New[R any](key index.KeyFunc[R]) *Scan[R] {
	return &Scan[R]{key: key}
}

// Len returns the number of records.
func (s *Scan[R]) Len() int { return len(s.records) }

// Empty reports whether the index holds no records.
func (s *Scan[R]) Empty() bool { return len(s.records) == 0 }

// Insert adds a record.
func (s *Scan[R]) Insert(r R) error {
	s.records = append(s.records, r)
	return nil
}

// InsertRange adds records.
func (s *Scan[R]) InsertRange(records []R) error {
	s.records = append(s.records, records...)
	return nil
}

// Clear removes every record.
func (s *Scan[R]) Clear() {
	clear(s.records)
	s.records = s.records[:0]
}

// Report emits every record.
func (s *Scan[R]) Report(sink index.Sink[R]) int {
	return index.EmitAll(s.records, sink)
}

// WindowQuery emits the records whose key lies in window.
func (s *Scan[R]) WindowQuery(window geom.BBox, sink index.Sink[R]) int {
	return index.EmitInWindow(s.records, s.key, window, sink)
}

// MemoryUsage returns the size of the structure plus record storage.
func (s *Scan[R]) MemoryUsage() int {
	var zero R
	return int(unsafe.Sizeof(*s)) + len(s.records)*int(unsafe.Sizeof(zero))
}

// Check always succeeds.
func (s *Scan[R]) Check() error { return nil }

// Stats summarizes the index.
type Stats struct {
	Records     int
	MemoryBytes int
}

// Stats returns statistics about the index.
func (s *Scan[R]) Stats() Stats {
	return Stats{Records: len(s.records), MemoryBytes: s.MemoryUsage()}
}

// String returns a multi-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("Scan:\n\trecords = %d\n\tmemory = %d bytes\n", s.Records, s.MemoryBytes)
}
