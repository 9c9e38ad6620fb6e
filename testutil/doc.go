// Package testutil provides testing utilities for orq.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random records and windows and for
// computing exact window query results by brute force.
//
// # Random Records
//
//	rng := testutil.NewRNG(seed)
//	records := rng.Records(1000, geom.Cube(0, 1))            // uniform
//	records := rng.ClusteredRecords(1000, 8, 0.02, domain)   // clustered
//	records := rng.LatticeRecords(1000, 4, domain)           // many equal coordinates
//
// # Ground Truth
//
//	want := testutil.BruteForce(records, window)
//	got := index.NewBitmapSink(testutil.ID)
//	idx.WindowQuery(window, got)
//	want.Equals(got.Bitmap)
package testutil
