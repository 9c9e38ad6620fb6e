package orq

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/index/kdtree"
	"github.com/hupe1980/orq/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var domain = geom.Cube(0, 100)

func newIndexes(t *testing.T, records []*testutil.Record, optFns ...Option) map[Kind]*Index[*testutil.Record] {
	t.Helper()
	ctx := context.Background()

	s, err := NewScan(ctx, testutil.Key, optFns...)
	require.NoError(t, err)
	c, err := NewCellArray(ctx, testutil.Key, domain, 10, optFns...)
	require.NoError(t, err)
	o, err := NewOctree(ctx, testutil.Key, domain, optFns...)
	require.NoError(t, err)

	for _, ix := range []*Index[*testutil.Record]{s, c, o} {
		require.NoError(t, ix.InsertRange(ctx, records))
	}

	k, err := NewKDTree(ctx, testutil.Key, records, optFns...)
	require.NoError(t, err)

	return map[Kind]*Index[*testutil.Record]{
		KindScan:      s,
		KindCellArray: c,
		KindOctree:    o,
		KindKDTree:    k,
	}
}

func TestIndex(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)
	records := rng.Records(2000, domain)
	indexes := newIndexes(t, records, WithLeafSize(4))

	t.Run("kinds agree", func(t *testing.T) {
		for range 100 {
			w := rng.Window(domain, 25)
			want := testutil.BruteForce(records, w)

			for kind, ix := range indexes {
				sink := index.NewBitmapSink(testutil.ID)
				n := ix.WindowQuery(ctx, w, sink)
				assert.Equal(t, int(want.GetCardinality()), n, kind.String())
				assert.True(t, want.Equals(sink.Bitmap), "%s window %v", kind, w)
			}
		}
	})

	t.Run("check domain", func(t *testing.T) {
		w := geom.Cube(20, 80)
		want := testutil.BruteForce(records, w)

		for kind, ix := range indexes {
			sink := index.NewBitmapSink(testutil.ID)
			n, err := ix.WindowQueryCheckDomain(ctx, w, sink)
			switch kind {
			case KindOctree, KindKDTree:
				require.NoError(t, err)
				assert.Equal(t, int(want.GetCardinality()), n)
				assert.True(t, want.Equals(sink.Bitmap), kind.String())
			default:
				assert.ErrorIs(t, err, ErrUnsupported, kind.String())
			}
		}
	})

	t.Run("accessors", func(t *testing.T) {
		for kind, ix := range indexes {
			assert.Equal(t, kind, ix.Kind())
			assert.Equal(t, 2000, ix.Len())
			assert.False(t, ix.Empty())
			assert.Positive(t, ix.MemoryUsage())
			assert.NotEmpty(t, ix.Stats().String())
			assert.NoError(t, ix.Check(ctx))
			assert.Equal(t, 2000, ix.Report(&index.CountSink[*testutil.Record]{}))

			d, ok := ix.Domain()
			if kind == KindScan {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.True(t, d.Inside(domain))
			}
		}
	})

	t.Run("immutable kd-tree", func(t *testing.T) {
		ix := indexes[KindKDTree]
		assert.ErrorIs(t, ix.Insert(ctx, records[0]), ErrImmutable)
		assert.ErrorIs(t, ix.InsertRange(ctx, records), ErrImmutable)
		assert.ErrorIs(t, ix.Clear(ctx), ErrImmutable)
		assert.Equal(t, 2000, ix.Len())
	})

	t.Run("concurrent queries", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, ix := range indexes {
			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 50 {
						ix.Query(ctx, geom.Cube(10, 30))
					}
				}()
			}
		}
		wg.Wait()
	})
}

func TestInsertErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("out of domain", func(t *testing.T) {
		for _, newIndex := range []func() (*Index[*testutil.Record], error){
			func() (*Index[*testutil.Record], error) {
				return NewCellArray(ctx, testutil.Key, geom.Cube(0, 10), 1)
			},
			func() (*Index[*testutil.Record], error) {
				return NewOctree(ctx, testutil.Key, geom.Cube(0, 10))
			},
		} {
			ix, err := newIndex()
			require.NoError(t, err)

			err = ix.Insert(ctx, &testutil.Record{Key: geom.Pt(10, 5, 5)})
			var ood *ErrOutOfDomain
			require.ErrorAs(t, err, &ood)
			assert.Equal(t, geom.Pt(10, 5, 5), ood.Key)
			assert.Equal(t, geom.Cube(0, 10), ood.Domain)

			var inner *index.ErrOutOfDomain
			assert.ErrorAs(t, err, &inner)
			assert.True(t, ix.Empty())
		}
	})

	t.Run("partial range", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		ix, err := NewOctree(ctx, testutil.Key, geom.Cube(0, 10), WithMetricsCollector(metrics))
		require.NoError(t, err)

		records := testutil.NewRecords(geom.Pt(1, 1, 1), geom.Pt(2, 2, 2), geom.Pt(20, 2, 2), geom.Pt(3, 3, 3))
		err = ix.InsertRange(ctx, records)
		assert.Error(t, err)
		assert.Equal(t, 2, ix.Len())

		st := metrics.GetStats()
		assert.Equal(t, int64(4), st.BatchInsertItems)
		assert.Equal(t, int64(2), st.BatchInsertFailed)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := NewCellArray(ctx, testutil.Key, geom.Cube(0, 10), 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewOctree(ctx, testutil.Key, geom.Cube(0, 0))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewKDTree(ctx, testutil.Key, nil, WithLeafSize(-1))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		var views kdtree.Views[*testutil.Record]
		views[0] = testutil.NewRecords(geom.Pt(1, 1, 1))
		_, err = NewKDTreeFromSorted(ctx, testutil.Key, views)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.ErrorIs(t, err, index.ErrViewLengthMismatch)
	})

	t.Run("cancelled build", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewKDTree(cctx, testutil.Key, testutil.NewRNG(4).Records(100, domain))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("memory limit", func(t *testing.T) {
		ix, err := NewOctree(ctx, testutil.Key, geom.Cube(0, 10), WithLeafSize(1), WithMemoryLimit(1024))
		require.NoError(t, err)

		rng := testutil.NewRNG(2)
		err = ix.InsertRange(ctx, rng.Records(1000, geom.Cube(0, 10)))
		assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
		assert.NoError(t, ix.Check(ctx))
	})
}

func TestCheckCorrupted(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewRecords(geom.Pt(1, 1, 1), geom.Pt(9, 9, 9))
	ix, err := NewCellArray(ctx, testutil.Key, geom.Cube(0, 10), 1)
	require.NoError(t, err)
	require.NoError(t, ix.InsertRange(ctx, records))

	records[0].Key = geom.Pt(5, 5, 5)
	assert.ErrorIs(t, ix.Check(ctx), ErrCorrupted)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(8)
	records := rng.Records(500, domain)

	for kind, ix := range newIndexes(t, records) {
		if kind == KindKDTree {
			continue
		}
		mem := ix.MemoryUsage()
		require.NoError(t, ix.Clear(ctx))
		assert.True(t, ix.Empty(), kind.String())
		assert.Empty(t, ix.Query(ctx, domain))
		assert.LessOrEqual(t, ix.MemoryUsage(), mem)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("OcTree")
	require.NoError(t, err)
	assert.Equal(t, KindOctree, got)

	_, err = ParseKind("rtree")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestObservability(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	ix, err := NewOctree(ctx, testutil.Key, geom.Cube(0, 10), WithLogger(logger), WithMetricsCollector(metrics))
	require.NoError(t, err)

	require.NoError(t, ix.Insert(ctx, &testutil.Record{Key: geom.Pt(1, 2, 3)}))
	assert.Error(t, ix.Insert(ctx, &testutil.Record{Key: geom.Pt(11, 2, 3)}))
	assert.Equal(t, 1, ix.WindowQuery(ctx, geom.Cube(0, 5), &index.CountSink[*testutil.Record]{}))
	require.NoError(t, ix.Check(ctx))
	require.NoError(t, ix.Clear(ctx))

	st := metrics.GetStats()
	assert.Equal(t, int64(1), st.BuildCount)
	assert.Equal(t, int64(2), st.InsertCount)
	assert.Equal(t, int64(1), st.InsertErrors)
	assert.Equal(t, int64(1), st.QueryCount)
	assert.Equal(t, int64(1), st.QueryMatches)

	out := buf.String()
	assert.Contains(t, out, `"kind":"octree"`)
	assert.Contains(t, out, "build completed")
	assert.Contains(t, out, "insert completed")
	assert.Contains(t, out, "insert failed")
	assert.Contains(t, out, "window query completed")
	assert.Contains(t, out, "check passed")
	assert.Contains(t, out, `"msg":"clear completed","kind":"octree","records":1`)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("other")
	assert.Equal(t, other, translateError(other))

	err := translateError(index.Inconsistent("leaf %d", 3))
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.ErrorIs(t, err, index.ErrInconsistent)

	err = translateError(index.ErrMemoryLimitExceeded)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
}
