package orq

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/index/cellarray"
	"github.com/hupe1980/orq/index/kdtree"
	"github.com/hupe1980/orq/index/octree"
	"github.com/hupe1980/orq/index/scan"
)

// Kind identifies the data structure behind an Index.
type Kind int

const (
	// KindScan tests every record on each query.
	KindScan Kind = iota
	// KindCellArray is a uniform grid over a fixed domain.
	KindCellArray
	// KindOctree is an adaptive octree over a fixed domain.
	KindOctree
	// KindKDTree is an immutable, balanced kd-tree.
	KindKDTree
)

// Kinds lists every index kind.
var Kinds = []Kind{KindScan, KindCellArray, KindOctree, KindKDTree}

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindCellArray:
		return "cellarray"
	case KindOctree:
		return "octree"
	case KindKDTree:
		return "kdtree"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown index kind %q", ErrInvalidArgument, s)
}

// Index wraps one of the range query indexes with logging, metrics and
// locking. Queries may run concurrently with each other; inserts and Clear
// are serialized against everything else.
//
// Records are borrowed: the index stores only the handles, so the referenced
// records must outlive it and their keys must not change while indexed.
type Index[R any] struct {
	mu      sync.RWMutex
	kind    Kind
	key     index.KeyFunc[R]
	querier index.Querier[R]
	ins     index.Inserter[R]      // nil if immutable
	dq      index.DomainQuerier[R] // nil if unsupported
	clr     index.Clearer          // nil if immutable
	domain  func() geom.BBox
	stats   func() fmt.Stringer
	metrics MetricsCollector
	logger  *Logger
}

// NewScan creates an empty sequential-scan index.
func NewScan[R any](ctx context.Context, key index.KeyFunc[R], optFns ...Option) (*Index[R], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	s := scan.New(key)
	ix := newIndex(KindScan, key, s, opts)
	ix.ins, ix.clr = s, s
	ix.stats = func() fmt.Stringer { return s.Stats() }

	ix.recordBuild(ctx, 0, start, nil)
	return ix, nil
}

// NewCellArray creates an empty uniform grid over domain with cells of
// roughly cellSize along every axis.
func NewCellArray[R any](ctx context.Context, key index.KeyFunc[R], domain geom.BBox, cellSize float64, optFns ...Option) (*Index[R], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	c, err := cellarray.New(key, domain, cellSize, func(o *cellarray.Options) {
		o.MemoryLimitBytes = opts.memoryLimitBytes
	})
	if err != nil {
		return nil, buildFailed(ctx, KindCellArray, opts, 0, start, err)
	}

	ix := newIndex(KindCellArray, key, c, opts)
	ix.ins, ix.clr = c, c
	ix.domain = c.Domain
	ix.stats = func() fmt.Stringer { return c.Stats() }

	ix.recordBuild(ctx, 0, start, nil)
	return ix, nil
}

// NewOctree creates an empty octree over domain.
func NewOctree[R any](ctx context.Context, key index.KeyFunc[R], domain geom.BBox, optFns ...Option) (*Index[R], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	t, err := octree.New(key, domain, func(o *octree.Options) {
		if opts.leafSize != 0 {
			o.LeafSize = opts.leafSize
		}
		if opts.maxDepth != 0 {
			o.MaxDepth = opts.maxDepth
		}
		o.MemoryLimitBytes = opts.memoryLimitBytes
	})
	if err != nil {
		return nil, buildFailed(ctx, KindOctree, opts, 0, start, err)
	}

	ix := newIndex(KindOctree, key, t, opts)
	ix.ins, ix.dq, ix.clr = t, t, t
	ix.domain = t.Domain
	ix.stats = func() fmt.Stringer { return t.Stats() }

	ix.recordBuild(ctx, 0, start, nil)
	return ix, nil
}

// NewKDTree builds a kd-tree over records. The result is immutable.
func NewKDTree[R any](ctx context.Context, key index.KeyFunc[R], records []R, optFns ...Option) (*Index[R], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	t, err := kdtree.New(ctx, key, records, kdOptions(opts))
	if err != nil {
		return nil, buildFailed(ctx, KindKDTree, opts, len(records), start, err)
	}
	return newKDIndex(ctx, key, t, opts, start), nil
}

// NewKDTreeFromSorted builds a kd-tree from three views of the same records,
// sorted by x, y and z respectively.
func NewKDTreeFromSorted[R any](ctx context.Context, key index.KeyFunc[R], views kdtree.Views[R], optFns ...Option) (*Index[R], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	t, err := kdtree.NewFromSorted(key, views, kdOptions(opts))
	if err != nil {
		return nil, buildFailed(ctx, KindKDTree, opts, len(views[0]), start, err)
	}
	return newKDIndex(ctx, key, t, opts, start), nil
}

func kdOptions(opts options) func(o *kdtree.Options) {
	return func(o *kdtree.Options) {
		if opts.leafSize != 0 {
			o.LeafSize = opts.leafSize
		}
		o.MemoryLimitBytes = opts.memoryLimitBytes
	}
}

func newKDIndex[R any](ctx context.Context, key index.KeyFunc[R], t *kdtree.KDTree[R], opts options, start time.Time) *Index[R] {
	ix := newIndex(KindKDTree, key, t, opts)
	ix.dq = t
	ix.domain = t.Domain
	ix.stats = func() fmt.Stringer { return t.Stats() }

	ix.recordBuild(ctx, t.Len(), start, nil)
	return ix
}

func newIndex[R any](kind Kind, key index.KeyFunc[R], q index.Querier[R], opts options) *Index[R] {
	return &Index[R]{
		kind:    kind,
		key:     key,
		querier: q,
		metrics: opts.metricsCollector,
		logger:  opts.logger.WithKind(kind),
	}
}

func buildFailed(ctx context.Context, kind Kind, opts options, records int, start time.Time, err error) error {
	err = translateError(err)
	duration := time.Since(start)
	opts.metricsCollector.RecordBuild(records, duration, err)
	opts.logger.WithKind(kind).LogBuild(ctx, records, duration, err)
	return err
}

func (ix *Index[R]) recordBuild(ctx context.Context, records int, start time.Time, err error) {
	duration := time.Since(start)
	ix.metrics.RecordBuild(records, duration, err)
	ix.logger.LogBuild(ctx, records, duration, err)
}

// Kind returns the index kind.
func (ix *Index[R]) Kind() Kind { return ix.kind }

// Len returns the number of indexed records.
func (ix *Index[R]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.querier.Len()
}

// Empty reports whether the index holds no records.
func (ix *Index[R]) Empty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.querier.Empty()
}

// Domain returns the index domain. The kd-tree reports the bounding box of
// its records; the sequential scan has no domain and reports false.
func (ix *Index[R]) Domain() (geom.BBox, bool) {
	if ix.domain == nil {
		return geom.BBox{}, false
	}
	return ix.domain(), true
}

// MemoryUsage returns the structural overhead plus record handle storage in
// bytes.
func (ix *Index[R]) MemoryUsage() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.querier.MemoryUsage()
}

// Stats returns kind-specific statistics.
func (ix *Index[R]) Stats() fmt.Stringer {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.stats()
}

// Insert adds a record.
func (ix *Index[R]) Insert(ctx context.Context, r R) error {
	start := time.Now()
	if ix.ins == nil {
		ix.metrics.RecordInsert(time.Since(start), ErrImmutable)
		ix.logger.LogInsert(ctx, ix.key(r), ErrImmutable)
		return ErrImmutable
	}

	ix.mu.Lock()
	err := translateError(ix.ins.Insert(r))
	ix.mu.Unlock()

	ix.metrics.RecordInsert(time.Since(start), err)
	ix.logger.LogInsert(ctx, ix.key(r), err)
	return err
}

// InsertRange adds records in order and stops at the first failure. Records
// before the failing one stay inserted.
func (ix *Index[R]) InsertRange(ctx context.Context, records []R) error {
	start := time.Now()
	if ix.ins == nil {
		ix.metrics.RecordBatchInsert(len(records), len(records), time.Since(start))
		ix.logger.LogBatchInsert(ctx, len(records), len(records))
		return ErrImmutable
	}

	ix.mu.Lock()
	before := ix.ins.Len()
	err := translateError(ix.ins.InsertRange(records))
	inserted := ix.ins.Len() - before
	ix.mu.Unlock()

	failed := len(records) - inserted
	ix.metrics.RecordBatchInsert(len(records), failed, time.Since(start))
	ix.logger.LogBatchInsert(ctx, len(records), failed)
	return err
}

// WindowQuery emits every record whose key lies in the closed window to sink
// and returns the count.
func (ix *Index[R]) WindowQuery(ctx context.Context, window geom.BBox, sink index.Sink[R]) int {
	start := time.Now()

	ix.mu.RLock()
	n := ix.querier.WindowQuery(window, sink)
	ix.mu.RUnlock()

	ix.metrics.RecordQuery(n, time.Since(start), nil)
	ix.logger.LogQuery(ctx, window, n, nil)
	return n
}

// WindowQueryCheckDomain behaves like WindowQuery but prunes with a running
// domain, reporting whole subtrees that lie inside the window. It pays off
// when results are much larger than the leaf size. Only octrees and kd-trees
// support it.
func (ix *Index[R]) WindowQueryCheckDomain(ctx context.Context, window geom.BBox, sink index.Sink[R]) (int, error) {
	start := time.Now()
	if ix.dq == nil {
		err := fmt.Errorf("%w: domain-tracking query on %s", ErrUnsupported, ix.kind)
		ix.metrics.RecordQuery(0, time.Since(start), err)
		ix.logger.LogQuery(ctx, window, 0, err)
		return 0, err
	}

	ix.mu.RLock()
	n := ix.dq.WindowQueryCheckDomain(window, ix.domain(), sink)
	ix.mu.RUnlock()

	ix.metrics.RecordQuery(n, time.Since(start), nil)
	ix.logger.LogQuery(ctx, window, n, nil)
	return n, nil
}

// Query returns the records whose key lies in the closed window.
func (ix *Index[R]) Query(ctx context.Context, window geom.BBox) []R {
	var sink index.SliceSink[R]
	ix.WindowQuery(ctx, window, &sink)
	return sink.Records
}

// Report emits every record to sink and returns the count.
func (ix *Index[R]) Report(sink index.Sink[R]) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.querier.Report(sink)
}

// Check validates the structural invariants of the index. A failure wraps
// ErrCorrupted.
func (ix *Index[R]) Check(ctx context.Context) error {
	ix.mu.RLock()
	err := translateError(ix.querier.Check())
	n := ix.querier.Len()
	ix.mu.RUnlock()

	ix.logger.LogCheck(ctx, n, err)
	return err
}

// Clear removes every record and keeps the allocated structure.
func (ix *Index[R]) Clear(ctx context.Context) error {
	if ix.clr == nil {
		ix.logger.LogClear(ctx, 0, ErrImmutable)
		return ErrImmutable
	}

	ix.mu.Lock()
	n := ix.querier.Len()
	ix.clr.Clear()
	ix.mu.Unlock()

	ix.logger.LogClear(ctx, n, nil)
	return nil
}
