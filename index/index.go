package index

import (
	"github.com/hupe1980/orq/geom"
)

// KeyFunc maps a record handle to its multi-key.
//
// The handle is borrowed: the index keeps only the handle and calls KeyFunc
// whenever it needs the key, so the referenced record must outlive the index
// and its key must not change while it is indexed.
type KeyFunc[R any] func(R) geom.Point

// Querier is implemented by every index kind.
type Querier[R any] interface {
	// Len returns the number of indexed records.
	Len() int

	// Empty reports whether the index holds no records.
	Empty() bool

	// Report emits every indexed record and returns the count.
	Report(sink Sink[R]) int

	// WindowQuery emits exactly the records whose key lies in the closed
	// window and returns the count.
	WindowQuery(window geom.BBox, sink Sink[R]) int

	// MemoryUsage returns the structural overhead plus record handle storage
	// in bytes.
	MemoryUsage() int

	// Check validates the structural invariants. It is a diagnostic, not
	// meant for the hot path.
	Check() error
}

// Inserter is implemented by indexes that grow by single-record insertion.
type Inserter[R any] interface {
	Querier[R]

	// Insert adds a record. The key must lie in the index domain.
	Insert(r R) error

	// InsertRange inserts records in order and stops at the first error.
	InsertRange(records []R) error
}

// DomainQuerier is implemented by hierarchies that can prune with a running
// domain instead of per-node state.
type DomainQuerier[R any] interface {
	// WindowQueryCheckDomain behaves like WindowQuery but narrows the given
	// domain while descending and reports whole subtrees whose domain lies
	// inside the window.
	WindowQueryCheckDomain(window, domain geom.BBox, sink Sink[R]) int
}

// Clearer is implemented by indexes that can drop all records while keeping
// their structure.
type Clearer interface {
	Clear()
}

// Base tracks the number of records in an index.
type Base struct {
	count int
}

// Len returns the number of records.
func (b *Base) Len() int { return b.count }

// Empty reports whether there are no records.
func (b *Base) Empty() bool { return b.count == 0 }

// Add increments the record count by n.
func (b *Base) Add(n int) { b.count += n }

// Sub decrements the record count by n.
func (b *Base) Sub(n int) { b.count -= n }

// Set sets the record count.
func (b *Base) Set(n int) { b.count = n }

// EmitInWindow forwards the records whose key lies in the closed window to
// sink and returns how many were emitted.
func EmitInWindow[R any](records []R, key KeyFunc[R], window geom.BBox, sink Sink[R]) int {
	n := 0
	for _, r := range records {
		if window.Contains(key(r)) {
			sink.Add(r)
			n++
		}
	}
	return n
}

// EmitAll forwards every record to sink and returns the count.
func EmitAll[R any](records []R, sink Sink[R]) int {
	for _, r := range records {
		sink.Add(r)
	}
	return len(records)
}
