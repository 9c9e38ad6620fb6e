// Package orq provides orthogonal range query indexes for 3-D point records.
//
// An index stores borrowed record handles together with a KeyFunc that maps a
// handle to its multi-key, and answers window queries: every record whose key
// lies in a closed axis-aligned box is streamed to a Sink.
//
// # Index Kinds
//
//   - Scan: tests every record; the reference for the others.
//   - CellArray: a uniform grid over a fixed domain. Cheap inserts, best for
//     evenly spread keys and windows close to the cell size.
//   - Octree: adaptive subdivision over a fixed domain. A leaf holding more
//     than LeafSize records is promoted to a branch with eight children.
//   - KDTree: built once from the complete record set and immutable
//     afterwards. Balanced, so depth grows with log(n / LeafSize).
//
// # Quick Start
//
//	type Station struct {
//	    Name string
//	    Pos  geom.Point
//	}
//
//	key := func(s *Station) geom.Point { return s.Pos }
//
//	ctx := context.Background()
//	idx, err := orq.NewOctree(ctx, key, geom.Cube(0, 100), orq.WithLeafSize(16))
//	if err != nil {
//	    panic(err)
//	}
//	_ = idx.InsertRange(ctx, stations)
//
//	for _, s := range idx.Query(ctx, geom.Cube(10, 20)) {
//	    fmt.Println(s.Name)
//	}
//
// # Boundaries
//
// Query windows are closed on both ends. Domains used to partition space
// (grid cells, octants, the domain of a cell array or octree) are closed at
// the lower and open at the upper bound, so each key belongs to exactly one
// cell or octant. Inserting a key outside the domain fails with
// ErrOutOfDomain.
//
// # Concurrency
//
// The index packages under index/ are not safe for concurrent use. Index adds
// a read-write lock: queries run concurrently, inserts and Clear do not.
//
// # Observability
//
// Use WithLogger for structured logging via log/slog and
// WithMetricsCollector for metrics; metrics/prom provides a Prometheus
// collector.
package orq
