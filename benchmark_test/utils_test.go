package benchmark_test

import (
	"context"
	"testing"

	"github.com/hupe1980/orq"
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/testutil"
)

var benchDomain = geom.Cube(0, 1000)

// distributions maps a name to a record generator over benchDomain.
var distributions = map[string]func(rng *testutil.RNG, n int) []*testutil.Record{
	"uniform": func(rng *testutil.RNG, n int) []*testutil.Record {
		return rng.Records(n, benchDomain)
	},
	"clustered": func(rng *testutil.RNG, n int) []*testutil.Record {
		return rng.ClusteredRecords(n, 16, 0.01, benchDomain)
	},
	"lattice": func(rng *testutil.RNG, n int) []*testutil.Record {
		return rng.LatticeRecords(n, 32, benchDomain)
	},
}

// selectivities are window edge lengths relative to the domain edge.
var selectivities = []float64{0.01, 0.05, 0.2}

func newIndex(tb testing.TB, kind orq.Kind, records []*testutil.Record) *orq.Index[*testutil.Record] {
	tb.Helper()
	ctx := context.Background()

	var (
		ix  *orq.Index[*testutil.Record]
		err error
	)
	switch kind {
	case orq.KindScan:
		ix, err = orq.NewScan(ctx, testutil.Key)
	case orq.KindCellArray:
		ix, err = orq.NewCellArray(ctx, testutil.Key, benchDomain, 20)
	case orq.KindOctree:
		ix, err = orq.NewOctree(ctx, testutil.Key, benchDomain, orq.WithLeafSize(16))
	case orq.KindKDTree:
		ix, err = orq.NewKDTree(ctx, testutil.Key, records, orq.WithLeafSize(16))
		if err != nil {
			tb.Fatal(err)
		}
		return ix
	}
	if err != nil {
		tb.Fatal(err)
	}
	if err := ix.InsertRange(ctx, records); err != nil {
		tb.Fatal(err)
	}
	return ix
}

func windows(rng *testutil.RNG, n int, selectivity float64) []geom.BBox {
	edge := selectivity * benchDomain.Extents()[0]
	ws := make([]geom.BBox, n)
	for i := range ws {
		lo := rng.Point(benchDomain)
		ws[i] = geom.NewBBox(lo, geom.Pt(lo[0]+edge, lo[1]+edge, lo[2]+edge))
	}
	return ws
}
