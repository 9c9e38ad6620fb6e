// Package kdtree provides a balanced kd-tree range query index.
//
// The tree is built once from the complete record set and is immutable
// afterwards. Construction starts from three copies of the records sorted by
// x, y and z. Each branch splits its subset at the median of the axis with
// the widest spread, and partitions the other two sorted copies in linear time
// while keeping them sorted, so no level needs to sort again. The result has
// depth O(log(n / LeafSize)).
package kdtree

import (
	"context"
	"unsafe"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/internal/arena"
	"github.com/hupe1980/orq/internal/resource"
)

// Compile-time checks to ensure KDTree satisfies required interfaces.
var _ index.Querier[int] = (*KDTree[int])(nil)
var _ index.DomainQuerier[int] = (*KDTree[int])(nil)

// Options contains configuration options for the kd-tree.
type Options struct {
	// LeafSize is the maximum number of records in a leaf.
	LeafSize int

	// MemoryLimitBytes caps the memory reserved for nodes and record handles.
	// If 0, memory is tracked but not limited.
	MemoryLimitBytes int64
}

// DefaultOptions contains the default configuration options for the kd-tree.
var DefaultOptions = Options{
	LeafSize: 8,
}

// KDTree is an immutable, balanced kd-tree.
type KDTree[R any] struct {
	key    index.KeyFunc[R]
	base   index.Base
	opts   Options
	domain geom.BBox

	records  []R // x-sorted within each leaf; leaves slice into it
	root     nodeRef
	leaves   *arena.Arena[leaf[R]]
	branches *arena.Arena[branch]

	rc          *resource.Controller
	leafBytes   int64
	branchBytes int64
	recordBytes int64
}

// New builds a kd-tree from records. records is not modified or retained.
func New[R any](ctx context.Context, key index.KeyFunc[R], records []R, optFns ...func(o *Options)) (*KDTree[R], error) {
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	views, err := Presort(ctx, key, records)
	if err != nil {
		return nil, err
	}
	return build(key, views, opts)
}

// NewFromSorted builds a kd-tree from three views of the same record set,
// sorted by x, y and z respectively. The views are copied, not retained.
func NewFromSorted[R any](key index.KeyFunc[R], views Views[R], optFns ...func(o *Options)) (*KDTree[R], error) {
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	if err := validateViews(key, views); err != nil {
		return nil, err
	}
	var owned Views[R]
	for d := range geom.Dim {
		owned[d] = append([]R(nil), views[d]...)
	}
	return build(key, owned, opts)
}

func buildOptions(optFns []func(o *Options)) (Options, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateLeafSize(opts.LeafSize); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// build takes ownership of views.
func build[R any](key index.KeyFunc[R], views Views[R], opts Options) (*KDTree[R], error) {
	var zero R
	n := len(views[0])
	t := &KDTree[R]{
		key:         key,
		opts:        opts,
		domain:      geom.Empty(),
		records:     views[0],
		leaves:      arena.New[leaf[R]](2*n/opts.LeafSize + 1),
		branches:    arena.New[branch](2*n/opts.LeafSize + 1),
		rc:          resource.NewController(resource.Config{MemoryLimitBytes: opts.MemoryLimitBytes}),
		recordBytes: int64(unsafe.Sizeof(zero)),
	}
	t.leafBytes = int64(t.leaves.SlotBytes())
	t.branchBytes = int64(t.branches.SlotBytes())

	if n > 0 {
		var lo, hi geom.Point
		for d := range geom.Dim {
			lo[d] = key(views[d][0])[d]
			hi[d] = key(views[d][n-1])[d]
		}
		t.domain = geom.NewBBox(lo, hi)
	}

	b := &builder[R]{
		t:       t,
		scratch: make([]R, 0, n),
		res:     t.rc.Reserve(),
	}
	if err := b.res.Acquire(int64(n) * t.recordBytes); err != nil {
		return nil, err
	}

	root, err := b.build(views)
	if err != nil {
		b.res.Rollback()
		return nil, err
	}
	b.res.Commit()

	t.root = root
	t.base.Set(n)
	return t, nil
}

// Domain returns the bounding box of the records, or an empty box for an
// empty tree.
func (t *KDTree[R]) Domain() geom.BBox { return t.domain }

// LeafSize returns the leaf size threshold.
func (t *KDTree[R]) LeafSize() int { return t.opts.LeafSize }

// Len returns the number of records.
func (t *KDTree[R]) Len() int { return t.base.Len() }

// Empty reports whether the tree holds no records.
func (t *KDTree[R]) Empty() bool { return t.base.Empty() }

// MemoryUsage returns the node storage plus record handle storage in bytes.
func (t *KDTree[R]) MemoryUsage() int {
	ls := t.leaves.Stats()
	bs := t.branches.Stats()
	return int(unsafe.Sizeof(*t)) +
		ls.Slots*ls.SlotBytes +
		bs.Slots*bs.SlotBytes +
		len(t.records)*int(t.recordBytes)
}
