package octree

import (
	"testing"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/internal/arena"
	"github.com/hupe1980/orq/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, domain geom.BBox, leafSize int, optFns ...func(*Options)) *Octree[*testutil.Record] {
	t.Helper()
	optFns = append([]func(*Options){func(o *Options) { o.LeafSize = leafSize }}, optFns...)
	tree, err := New(testutil.Key, domain, optFns...)
	require.NoError(t, err)
	return tree
}

func leafRecords(tree *Octree[*testutil.Record], n nodeRef) []*testutil.Record {
	return tree.leaves.MustGet(n.ref()).records
}

func TestOctree(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		tree := newTree(t, geom.Cube(0, 8), 4)
		assert.True(t, tree.Empty())
		assert.Equal(t, 4, tree.LeafSize())
		assert.Equal(t, geom.Cube(0, 8), tree.Domain())
		assert.False(t, tree.root.isBranch())
		assert.NoError(t, tree.Check())

		_, err := New(testutil.Key, geom.Cube(0, 8), func(o *Options) { o.LeafSize = 0 })
		assert.ErrorIs(t, err, index.ErrInvalidLeafSize)

		_, err = New(testutil.Key, geom.NewBBox(geom.Pt(0, 0, 0), geom.Pt(1, 0, 1)))
		assert.ErrorIs(t, err, index.ErrInvalidDomain)
	})

	t.Run("promotion", func(t *testing.T) {
		records := testutil.NewRecords(geom.Pt(1, 1, 1), geom.Pt(6, 1, 1), geom.Pt(1, 6, 1))
		tree := newTree(t, geom.Cube(0, 8), 1)

		require.NoError(t, tree.Insert(records[0]))
		assert.False(t, tree.root.isBranch())

		require.NoError(t, tree.Insert(records[1]))
		require.True(t, tree.root.isBranch(), "root leaf must be promoted after overflow")

		require.NoError(t, tree.Insert(records[2]))
		require.NoError(t, tree.Check())

		root := tree.branches.MustGet(tree.root.ref())
		assert.Equal(t, geom.Pt(4, 4, 4), root.mid)
		for code, want := range map[uint8]*testutil.Record{0: records[0], 1: records[1], 2: records[2]} {
			child := root.children[code]
			require.False(t, child.isBranch())
			assert.Equal(t, []*testutil.Record{want}, leafRecords(tree, child), "octant %d", code)
		}
		for code := 3; code < 8; code++ {
			assert.Empty(t, leafRecords(tree, root.children[code]))
		}

		st := tree.Stats()
		assert.Equal(t, 1, st.Branches)
		assert.Equal(t, 8, st.Leaves)
		assert.Equal(t, 5, st.EmptyLeaves)
		assert.Equal(t, 1, st.Promotions)
		assert.Equal(t, 1, st.Depth)
	})

	t.Run("cascading promotion", func(t *testing.T) {
		// Both records fall into octant 0 twice over, so the first promotion
		// must promote its child again.
		records := testutil.NewRecords(geom.Pt(0.5, 0.5, 0.5), geom.Pt(1.5, 1.5, 1.5))
		tree := newTree(t, geom.Cube(0, 8), 1)
		require.NoError(t, tree.InsertRange(records))
		require.NoError(t, tree.Check())

		st := tree.Stats()
		assert.Equal(t, 3, st.Depth)
		assert.Equal(t, 3, st.Branches)
		assert.Equal(t, 1, st.MaxLeafOccupancy)
	})

	t.Run("coincident keys", func(t *testing.T) {
		var points []geom.Point
		for range 10 {
			points = append(points, geom.Pt(3, 3, 3))
		}
		tree := newTree(t, geom.Cube(0, 8), 1, func(o *Options) { o.MaxDepth = 6 })
		require.NoError(t, tree.InsertRange(testutil.NewRecords(points...)))
		require.NoError(t, tree.Check())

		st := tree.Stats()
		assert.Equal(t, 6, st.Depth)
		assert.Equal(t, 10, st.MaxLeafOccupancy)

		sink := &index.CountSink[*testutil.Record]{}
		assert.Equal(t, 10, tree.WindowQuery(geom.NewBBox(geom.Pt(3, 3, 3), geom.Pt(3, 3, 3)), sink))
	})

	t.Run("out of domain", func(t *testing.T) {
		tree := newTree(t, geom.Cube(0, 8), 2)

		err := tree.Insert(&testutil.Record{Key: geom.Pt(8, 1, 1)})
		var ood *index.ErrOutOfDomain
		assert.ErrorAs(t, err, &ood)
		assert.Equal(t, 0, tree.Len())
	})

	t.Run("boundaries", func(t *testing.T) {
		records := testutil.NewRecords(geom.Pt(4, 4, 4), geom.Pt(2, 2, 2), geom.Pt(7, 7, 7))
		tree := newTree(t, geom.Cube(0, 8), 1)
		require.NoError(t, tree.InsertRange(records))

		sink := &index.SliceSink[*testutil.Record]{}
		assert.Equal(t, 1, tree.WindowQuery(geom.NewBBox(records[0].Key, records[0].Key), sink))
		assert.Equal(t, records[0], sink.Records[0])

		count := &index.CountSink[*testutil.Record]{}
		assert.Equal(t, 0, tree.WindowQuery(geom.NewBBox(geom.Pt(1, 1, 1), geom.Pt(1, 1, 1)), count))
		assert.Equal(t, 0, tree.WindowQuery(geom.Empty(), count))
		assert.Equal(t, 0, tree.WindowQueryCheckDomain(geom.Empty(), tree.Domain(), count))
		assert.Equal(t, 0, tree.WindowQuery(geom.Cube(8, 9), count))
		assert.Equal(t, 3, tree.WindowQuery(geom.Cube(-1, 100), count))
	})

	t.Run("memory usage is monotone", func(t *testing.T) {
		tree := newTree(t, geom.Cube(0, 1), 4)
		prev := tree.MemoryUsage()
		for _, r := range testutil.NewRNG(5).Records(500, geom.Cube(0, 1)) {
			require.NoError(t, tree.Insert(r))
			cur := tree.MemoryUsage()
			assert.GreaterOrEqual(t, cur, prev)
			prev = cur
		}
	})

	t.Run("clear", func(t *testing.T) {
		tree := newTree(t, geom.Cube(0, 1), 4)
		require.NoError(t, tree.InsertRange(testutil.NewRNG(5).Records(300, geom.Cube(0, 1))))

		tree.Clear()
		assert.True(t, tree.Empty())
		assert.False(t, tree.root.isBranch())
		assert.NoError(t, tree.Check())
		assert.Equal(t, tree.leafBytes, tree.rc.MemoryUsage())

		require.NoError(t, tree.Insert(&testutil.Record{Key: geom.Pt(0.5, 0.5, 0.5)}))
		assert.Equal(t, 1, tree.Len())
	})

	t.Run("key mutated after insertion", func(t *testing.T) {
		records := testutil.NewRecords(geom.Pt(1, 1, 1), geom.Pt(6, 1, 1), geom.Pt(1, 6, 1))
		tree := newTree(t, geom.Cube(0, 8), 1)
		require.NoError(t, tree.InsertRange(records))
		require.NoError(t, tree.Check())

		records[0].Key = geom.Pt(7, 7, 7)
		assert.ErrorIs(t, tree.Check(), index.ErrInconsistent)
	})
}

func TestOctreePromotionIsAtomic(t *testing.T) {
	probe := newTree(t, geom.Cube(0, 8), 1)
	// Room for the root leaf, two records and less than a full promotion.
	limit := probe.leafBytes + 2*probe.recordBytes + 4*probe.leafBytes

	tree := newTree(t, geom.Cube(0, 8), 1, func(o *Options) { o.MemoryLimitBytes = limit })
	records := testutil.NewRecords(geom.Pt(1, 1, 1), geom.Pt(6, 6, 6))

	require.NoError(t, tree.Insert(records[0]))
	usage := tree.rc.MemoryUsage()
	memory := tree.MemoryUsage()

	err := tree.Insert(records[1])
	require.ErrorIs(t, err, index.ErrMemoryLimitExceeded)

	assert.Equal(t, 1, tree.Len())
	assert.False(t, tree.root.isBranch(), "failed promotion must keep the old leaf")
	assert.Equal(t, []*testutil.Record{records[0]}, leafRecords(tree, tree.root))
	assert.Equal(t, usage, tree.rc.MemoryUsage())
	assert.Equal(t, 1, tree.leaves.Len())
	assert.Equal(t, 0, tree.branches.Len())
	assert.GreaterOrEqual(t, tree.MemoryUsage(), memory)
	require.NoError(t, tree.Check())

	sink := &index.SliceSink[*testutil.Record]{}
	assert.Equal(t, 1, tree.Report(sink))
	assert.Equal(t, records[:1], sink.Records)
}

func TestOctreeMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(42)
	domain := geom.NewBBox(geom.Pt(-5, 0, 10), geom.Pt(5, 2, 30))

	for _, tc := range []struct {
		name     string
		records  []*testutil.Record
		leafSize int
	}{
		{"uniform", rng.Records(2000, domain), 8},
		{"uniform leaf size 1", rng.Records(500, domain), 1},
		{"clustered", rng.ClusteredRecords(2000, 5, 0.01, domain), 16},
		{"lattice", rng.LatticeRecords(2000, 6, domain), 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tree := newTree(t, domain, tc.leafSize)
			require.NoError(t, tree.InsertRange(tc.records))
			require.NoError(t, tree.Check())
			assert.Equal(t, len(tc.records), tree.Len())

			all := index.NewBitmapSink(testutil.ID)
			assert.Equal(t, len(tc.records), tree.Report(all))
			assert.True(t, testutil.IDs(tc.records).Equals(all.Bitmap))

			whole := index.NewBitmapSink(testutil.ID)
			assert.Equal(t, len(tc.records), tree.WindowQuery(domain, whole))
			assert.True(t, all.Bitmap.Equals(whole.Bitmap))

			for range 200 {
				w := rng.Window(domain, 4)
				want := testutil.BruteForce(tc.records, w)

				got := index.NewBitmapSink(testutil.ID)
				n := tree.WindowQuery(w, got)
				assert.Equal(t, int(want.GetCardinality()), n)
				assert.True(t, want.Equals(got.Bitmap), "window %v", w)

				gotCD := index.NewBitmapSink(testutil.ID)
				n = tree.WindowQueryCheckDomain(w, tree.Domain(), gotCD)
				assert.Equal(t, int(want.GetCardinality()), n)
				assert.True(t, want.Equals(gotCD.Bitmap), "check domain window %v", w)
			}
		})
	}
}

func TestOctreeOrderIndependence(t *testing.T) {
	rng := testutil.NewRNG(99)
	domain := geom.Cube(0, 1)
	records := rng.Records(1000, domain)

	a := newTree(t, domain, 4)
	b := newTree(t, domain, 4)
	require.NoError(t, a.InsertRange(records))
	require.NoError(t, b.InsertRange(rng.Shuffle(records)))

	for range 100 {
		w := rng.Window(domain, 0.3)
		ga := index.NewBitmapSink(testutil.ID)
		gb := index.NewBitmapSink(testutil.ID)
		a.WindowQuery(w, ga)
		b.WindowQuery(w, gb)
		assert.True(t, ga.Bitmap.Equals(gb.Bitmap), "window %v", w)
	}
}

func TestOctantsTileBranches(t *testing.T) {
	tree := newTree(t, geom.Cube(0, 1), 2)
	require.NoError(t, tree.InsertRange(testutil.NewRNG(8).Records(400, geom.Cube(0, 1))))

	for ref := range tree.branches.Stats().Slots {
		b := tree.branches.Get(arena.Ref(ref))
		if b == nil {
			continue
		}
		var volume float64
		for _, c := range b.children {
			d := tree.nodeDomain(c)
			assert.True(t, d.Inside(b.domain))
			volume += d.Content()
		}
		assert.InDelta(t, b.domain.Content(), volume, 1e-12)
	}
}

func TestOctreeStatsString(t *testing.T) {
	tree := newTree(t, geom.Cube(0, 1), 2)
	require.NoError(t, tree.InsertRange(testutil.NewRNG(8).Records(50, geom.Cube(0, 1))))

	s := tree.Stats()
	assert.Equal(t, 50, s.Records)
	assert.Equal(t, s.Leaves, 7*s.Branches+1)
	assert.Contains(t, s.String(), "records = 50")
}

func BenchmarkOctreeInsert(b *testing.B) {
	rng := testutil.NewRNG(1)
	domain := geom.Cube(0, 1)
	records := rng.Records(b.N, domain)
	tree, _ := New(testutil.Key, domain)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(records[i])
	}
}

func BenchmarkOctreeWindowQuery(b *testing.B) {
	rng := testutil.NewRNG(1)
	domain := geom.Cube(0, 1)
	tree, _ := New(testutil.Key, domain)
	_ = tree.InsertRange(rng.Records(100_000, domain))

	sink := &index.CountSink[*testutil.Record]{}
	b.Run("WindowQuery", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			tree.WindowQuery(rng.Window(domain, 0.1), sink)
		}
	})
	b.Run("WindowQueryCheckDomain", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			tree.WindowQueryCheckDomain(rng.Window(domain, 0.1), domain, sink)
		}
	})
}
