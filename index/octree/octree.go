// Package octree provides an adaptive octree range query index.
//
// The tree starts as a single leaf covering the domain and grows by single
// record insertion. When a leaf would exceed the leaf size it is promoted to a
// branch: its domain is bisected along all three axes and its records are
// redistributed into eight new leaves. Branches never revert to leaves.
//
// Nodes are stored in arenas and addressed by index, so the tree exclusively
// owns every node and there are no pointer cycles.
package octree

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/internal/arena"
	"github.com/hupe1980/orq/internal/assert"
	"github.com/hupe1980/orq/internal/resource"
)

// Compile-time checks to ensure Octree satisfies required interfaces.
var _ index.Inserter[int] = (*Octree[int])(nil)
var _ index.DomainQuerier[int] = (*Octree[int])(nil)
var _ index.Clearer = (*Octree[int])(nil)

// Options contains configuration options for the octree.
type Options struct {
	// LeafSize is the maximum number of records a leaf holds before it is
	// promoted to a branch.
	LeafSize int

	// MaxDepth bounds the depth of the tree. Leaves at MaxDepth, and leaves
	// whose domain can no longer be bisected in float64, accept records beyond
	// LeafSize. This keeps coincident keys from subdividing forever.
	MaxDepth int

	// MemoryLimitBytes caps the memory reserved for nodes and record handles.
	// If 0, memory is tracked but not limited.
	MemoryLimitBytes int64
}

// DefaultOptions contains the default configuration options for the octree.
var DefaultOptions = Options{
	LeafSize: 8,
	MaxDepth: 32,
}

// Octree is an adaptive octree over a fixed domain.
type Octree[R any] struct {
	key    index.KeyFunc[R]
	base   index.Base
	domain geom.BBox
	opts   Options

	root     nodeRef
	leaves   *arena.Arena[leaf[R]]
	branches *arena.Arena[branch]

	rc          *resource.Controller
	leafBytes   int64
	branchBytes int64
	recordBytes int64
	promotions  int
}

// New creates an empty octree over domain.
func New[R any](key index.KeyFunc[R], domain geom.BBox, optFns ...func(o *Options)) (*Octree[R], error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateDomain(domain); err != nil {
		return nil, err
	}
	if err := index.ValidateLeafSize(opts.LeafSize); err != nil {
		return nil, err
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions.MaxDepth
	}

	var zero R
	t := &Octree[R]{
		key:         key,
		domain:      domain,
		opts:        opts,
		leaves:      arena.New[leaf[R]](1),
		branches:    arena.New[branch](0),
		rc:          resource.NewController(resource.Config{MemoryLimitBytes: opts.MemoryLimitBytes}),
		recordBytes: int64(unsafe.Sizeof(zero)),
	}
	t.leafBytes = int64(t.leaves.SlotBytes())
	t.branchBytes = int64(t.branches.SlotBytes())

	if err := t.resetRoot(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Octree[R]) resetRoot() error {
	if err := t.rc.AcquireMemory(t.leafBytes); err != nil {
		return err
	}
	ref, err := t.leaves.Alloc(leaf[R]{domain: t.domain})
	if err != nil {
		t.rc.ReleaseMemory(t.leafBytes)
		return err
	}
	t.root = leafNode(ref)
	return nil
}

// Domain returns the domain of the tree.
func (t *Octree[R]) Domain() geom.BBox { return t.domain }

// LeafSize returns the leaf size threshold.
func (t *Octree[R]) LeafSize() int { return t.opts.LeafSize }

// Len returns the number of records.
func (t *Octree[R]) Len() int { return t.base.Len() }

// Empty reports whether the tree holds no records.
func (t *Octree[R]) Empty() bool { return t.base.Empty() }

// insertOp tracks the nodes an insertion allocates and the leaves it
// replaces, so that a failed insertion can be undone and a successful one
// releases the replaced leaves only after the new subtree is in place.
type insertOp struct {
	res       *resource.Reservation
	allocated []nodeRef
	retired   []nodeRef
}

// Insert adds a record. The key must lie in the half-open domain.
//
// If a promotion cannot reserve memory, Insert returns
// index.ErrMemoryLimitExceeded and the tree is left as it was.
func (t *Octree[R]) Insert(r R) error {
	p := t.key(r)
	if !t.domain.ContainsHalfOpen(p) {
		return &index.ErrOutOfDomain{Key: p, Domain: t.domain}
	}

	op := &insertOp{res: t.rc.Reserve()}
	if err := op.res.Acquire(t.recordBytes); err != nil {
		return err
	}

	root, err := t.insert(t.root, r, p, 0, op)
	if err != nil {
		t.abort(op)
		return err
	}

	t.root = root
	t.commit(op)
	t.base.Add(1)
	return nil
}

// InsertRange inserts records in order and stops at the first error.
func (t *Octree[R]) InsertRange(records []R) error {
	for i, r := range records {
		if err := t.Insert(r); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

// insert adds r below n and returns the node that now occupies n's slot in
// its parent. Only a leaf promotion changes the returned node.
func (t *Octree[R]) insert(n nodeRef, r R, p geom.Point, depth int, op *insertOp) (nodeRef, error) {
	if n.isBranch() {
		b := t.branches.MustGet(n.ref())
		code := geom.Octant(p, b.mid)

		child, err := t.insert(b.children[code], r, p, depth+1, op)
		if err != nil {
			return n, err
		}
		// The arena may have grown; fetch the branch again.
		t.branches.MustGet(n.ref()).children[code] = child
		return n, nil
	}

	l := t.leaves.MustGet(n.ref())
	assert.That(l.domain.ContainsHalfOpen(p), "key %v outside leaf domain %v", p, l.domain)

	if len(l.records) < t.opts.LeafSize || !t.splittable(l.domain, depth) {
		l.records = append(l.records, r)
		return n, nil
	}

	return t.promote(n, r, p, depth, op)
}

func (t *Octree[R]) splittable(domain geom.BBox, depth int) bool {
	return depth < t.opts.MaxDepth && domain.Bisectable()
}

// promote builds a branch that replaces leaf n and holds its records plus r.
// The old leaf is not modified; it is retired only if the whole insertion
// succeeds.
func (t *Octree[R]) promote(n nodeRef, r R, p geom.Point, depth int, op *insertOp) (nodeRef, error) {
	old := *t.leaves.MustGet(n.ref())
	mid := old.domain.Midpoint()

	b := branch{domain: old.domain, mid: mid}
	for code := range uint8(8) {
		child, err := t.allocLeaf(old.domain.OctantBox(code, mid), op)
		if err != nil {
			return n, err
		}
		b.children[code] = child
	}
	nb, err := t.allocBranch(b, op)
	if err != nil {
		return n, err
	}

	for _, q := range old.records {
		if nb, err = t.insert(nb, q, t.key(q), depth, op); err != nil {
			return n, err
		}
	}
	if nb, err = t.insert(nb, r, p, depth, op); err != nil {
		return n, err
	}

	op.retired = append(op.retired, n)
	t.promotions++
	return nb, nil
}

func (t *Octree[R]) allocLeaf(domain geom.BBox, op *insertOp) (nodeRef, error) {
	if err := op.res.Acquire(t.leafBytes); err != nil {
		return 0, err
	}
	ref, err := t.leaves.Alloc(leaf[R]{domain: domain})
	if err != nil {
		return 0, err
	}
	n := leafNode(ref)
	op.allocated = append(op.allocated, n)
	return n, nil
}

func (t *Octree[R]) allocBranch(b branch, op *insertOp) (nodeRef, error) {
	if err := op.res.Acquire(t.branchBytes); err != nil {
		return 0, err
	}
	ref, err := t.branches.Alloc(b)
	if err != nil {
		return 0, err
	}
	n := branchNode(ref)
	op.allocated = append(op.allocated, n)
	return n, nil
}

// commit keeps the allocated nodes and releases the retired leaves.
func (t *Octree[R]) commit(op *insertOp) {
	op.res.Commit()
	for _, n := range op.retired {
		t.freeNode(n)
		t.rc.ReleaseMemory(t.leafBytes)
	}
}

// abort releases everything the failed insertion allocated. Pre-existing
// nodes were not modified.
func (t *Octree[R]) abort(op *insertOp) {
	for _, n := range op.allocated {
		t.freeNode(n)
	}
	op.res.Rollback()
}

func (t *Octree[R]) freeNode(n nodeRef) {
	var err error
	if n.isBranch() {
		err = t.branches.Free(n.ref())
	} else {
		err = t.leaves.Free(n.ref())
	}
	assert.That(err == nil, "free node %d: %v", n, err)
}

// Clear removes every record and collapses the tree to a single leaf.
func (t *Octree[R]) Clear() {
	t.rc.ReleaseMemory(int64(t.leaves.Len())*t.leafBytes +
		int64(t.branches.Len())*t.branchBytes +
		int64(t.base.Len())*t.recordBytes)
	t.leaves.Reset()
	t.branches.Reset()
	t.base.Set(0)
	// Reserving a single leaf after releasing the whole tree cannot exceed
	// the limit unless the limit is smaller than one leaf, which New rejects.
	err := t.resetRoot()
	assert.That(err == nil, "reset root: %v", err)
}

// MemoryUsage returns the node storage plus record handle storage in bytes.
// Node slots are never returned to the allocator, so the value only grows
// until Clear.
func (t *Octree[R]) MemoryUsage() int {
	ls := t.leaves.Stats()
	bs := t.branches.Stats()
	return int(unsafe.Sizeof(*t)) +
		ls.Slots*ls.SlotBytes +
		bs.Slots*bs.SlotBytes +
		t.base.Len()*int(t.recordBytes)
}
