// Package index defines the contract shared by the orthogonal range query
// (ORQ) indexes and the pieces they have in common.
//
// Subpackages implement the contract:
//
//   - cellarray: dense uniform grid over a fixed domain
//   - octree: adaptive octree grown by single-record insertion
//   - kdtree: balanced kd-tree built once from the complete record set
//   - scan: sequential scan, the baseline every index must agree with
//
// # Records
//
// An index stores record handles of any type R (a pointer, an index into a
// caller-owned slice, an id). It never owns or copies the referenced data. The
// KeyFunc supplied at construction maps a handle to its 3-D key. The key must
// stay stable for as long as the handle is indexed; changing it afterwards
// silently breaks the index invariants.
//
// # Queries
//
// Every query streams matches to a Sink and returns the number emitted. Query
// windows are closed boxes; an empty result is not an error.
//
// # Concurrency
//
// Indexes are not safe for concurrent use. Insert may restructure nodes in
// place, so callers must serialize all access to one index.
package index
