// Package arena provides a typed slot allocator for tree nodes.
//
// Nodes are addressed by Ref (a slot index) instead of by pointer. A tree that
// stores its nodes in an arena owns them exclusively: there is no aliasing
// between trees and no reference cycles, and releasing the arena releases every
// node at once.
//
// # Features
//
//   - Dense []T backing storage for cache locality
//   - Free list reuse of released slots
//   - Live-slot tracking with a bitset (used by consistency checks)
//   - Stats for memory accounting
//
// # Safety
//
// Get returns a pointer into the backing slice. The pointer is invalidated by
// the next Alloc, which may grow the slice. Callers must re-fetch after Alloc.
//
// An Arena is not safe for concurrent use.
package arena
