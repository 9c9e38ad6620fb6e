package arena

import (
	"errors"
	"math"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrArenaFull is returned when no more slots can be addressed.
	ErrArenaFull = errors.New("arena: full")
	// ErrInvalidRef is returned when a Ref does not address a live slot.
	ErrInvalidRef = errors.New("arena: invalid ref")
)

// Ref addresses a slot in an Arena.
type Ref uint32

// MaxRef is the largest addressable slot. The top bit is left to callers
// that want to tag refs.
const MaxRef = Ref(math.MaxUint32 >> 1)

// Stats tracks arena slot usage.
type Stats struct {
	Slots     int // Slots ever allocated (len of backing storage)
	Live      int // Slots currently in use
	Free      int // Released slots waiting for reuse
	SlotBytes int // Size of one slot in bytes
}

// Arena is a typed slot allocator.
type Arena[T any] struct {
	slots []T
	free  []Ref
	live  *bitset.BitSet
}

// New creates an Arena with room for capacity slots before growing.
func New[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[T]{
		slots: make([]T, 0, capacity),
		live:  bitset.New(uint(capacity)),
	}
}

// Alloc stores v in a free slot and returns its Ref.
func (a *Arena[T]) Alloc(v T) (Ref, error) {
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[ref] = v
		a.live.Set(uint(ref))
		return ref, nil
	}

	if Ref(len(a.slots)) > MaxRef {
		return 0, ErrArenaFull
	}

	ref := Ref(len(a.slots))
	a.slots = append(a.slots, v)
	a.live.Set(uint(ref))
	return ref, nil
}

// Get returns a pointer to the slot addressed by ref, or nil if the slot is
// not live.
func (a *Arena[T]) Get(ref Ref) *T {
	if !a.IsLive(ref) {
		return nil
	}
	return &a.slots[ref]
}

// MustGet is like Get but panics on a dead ref. Trees use it on refs they
// own, where a dead ref means the tree is corrupt.
func (a *Arena[T]) MustGet(ref Ref) *T {
	p := a.Get(ref)
	if p == nil {
		panic(ErrInvalidRef)
	}
	return p
}

// Free releases the slot addressed by ref. The slot value is zeroed so that it
// does not keep referenced memory alive.
func (a *Arena[T]) Free(ref Ref) error {
	if !a.IsLive(ref) {
		return ErrInvalidRef
	}
	var zero T
	a.slots[ref] = zero
	a.live.Clear(uint(ref))
	a.free = append(a.free, ref)
	return nil
}

// IsLive reports whether ref addresses an allocated slot.
func (a *Arena[T]) IsLive(ref Ref) bool {
	return int(ref) < len(a.slots) && a.live.Test(uint(ref))
}

// Len returns the number of live slots.
func (a *Arena[T]) Len() int {
	return int(a.live.Count())
}

// Reset releases every slot but keeps the backing storage.
func (a *Arena[T]) Reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	a.free = a.free[:0]
	a.live.ClearAll()
}

// Live returns a copy of the live-slot set.
func (a *Arena[T]) Live() *bitset.BitSet {
	return a.live.Clone()
}

// SlotBytes returns the size of one slot.
func (a *Arena[T]) SlotBytes() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Stats returns the current slot usage.
func (a *Arena[T]) Stats() Stats {
	return Stats{
		Slots:     len(a.slots),
		Live:      a.Len(),
		Free:      len(a.free),
		SlotBytes: a.SlotBytes(),
	}
}
