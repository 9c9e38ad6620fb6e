// Package geom provides the 3-D primitives shared by all range query indexes.
//
// A Point is the multi-key of a record: an ordered (x, y, z) triple that is
// totally ordered per axis. A BBox is an axis-aligned box used in two roles:
//
//   - Query windows are closed on both ends. Contains and Overlaps implement
//     this convention.
//   - Partition domains (grid cells, octants, the index domain itself) are
//     closed at the lower and open at the upper bound, so every point belongs
//     to exactly one cell. ContainsHalfOpen and OverlapsHalfOpen implement it.
package geom
