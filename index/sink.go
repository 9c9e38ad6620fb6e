package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Sink is an append-only consumer of matched record handles.
type Sink[R any] interface {
	Add(r R)
}

// SliceSink collects records into a slice.
type SliceSink[R any] struct {
	Records []R
}

// Add implements Sink.
func (s *SliceSink[R]) Add(r R) {
	s.Records = append(s.Records, r)
}

// Reset empties the sink and keeps its capacity.
func (s *SliceSink[R]) Reset() {
	s.Records = s.Records[:0]
}

// FuncSink adapts a function to a Sink.
type FuncSink[R any] func(R)

// Add implements Sink.
func (f FuncSink[R]) Add(r R) {
	f(r)
}

// CountSink counts records without keeping them.
type CountSink[R any] struct {
	N int
}

// Add implements Sink.
func (c *CountSink[R]) Add(R) {
	c.N++
}

// BitmapSink collects the ids of records into a roaring bitmap. Result sets of
// different indexes can then be compared with Equals regardless of order.
type BitmapSink[R any] struct {
	Bitmap *roaring.Bitmap
	id     func(R) uint32
}

// NewBitmapSink creates a BitmapSink that maps records to ids with id.
func NewBitmapSink[R any](id func(R) uint32) *BitmapSink[R] {
	return &BitmapSink[R]{
		Bitmap: roaring.New(),
		id:     id,
	}
}

// Add implements Sink.
func (b *BitmapSink[R]) Add(r R) {
	b.Bitmap.Add(b.id(r))
}

// Reset empties the bitmap.
func (b *BitmapSink[R]) Reset() {
	b.Bitmap.Clear()
}
