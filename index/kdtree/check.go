package kdtree

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
)

// Check validates the tree against its own bounding box.
func (t *KDTree[R]) Check() error {
	if t.Empty() {
		return t.CheckDomain(geom.Empty())
	}
	return t.CheckDomain(t.domain)
}

// CheckDomain verifies that every record lies in the closed domain, that
// every record left of a split is not greater and every record right of it
// is greater than the split key, that leaves respect the leaf size, and that
// every allocated node is reachable exactly once.
func (t *KDTree[R]) CheckDomain(domain geom.BBox) error {
	c := &checker[R]{
		t:        t,
		leaves:   bitset.New(uint(t.leaves.Len())),
		branches: bitset.New(uint(t.branches.Len())),
	}
	if err := c.check(t.root, domain, [geom.Dim]bool{}); err != nil {
		return err
	}

	if c.records != t.base.Len() || c.records != len(t.records) {
		return index.Inconsistent("record count %d, leaves hold %d", t.base.Len(), c.records)
	}
	if c.leaves.SymmetricDifferenceCardinality(t.leaves.Live()) != 0 {
		return index.Inconsistent("%d leaves allocated, %d reachable", t.leaves.Len(), c.leaves.Count())
	}
	if c.branches.SymmetricDifferenceCardinality(t.branches.Live()) != 0 {
		return index.Inconsistent("%d branches allocated, %d reachable", t.branches.Len(), c.branches.Count())
	}
	return nil
}

type checker[R any] struct {
	t        *KDTree[R]
	leaves   *bitset.BitSet
	branches *bitset.BitSet
	records  int
}

// check validates the subtree n. lowerOpen marks the axes on which domain's
// lower bound is exclusive because n lies right of a split there.
func (c *checker[R]) check(n nodeRef, domain geom.BBox, lowerOpen [geom.Dim]bool) error {
	t := c.t

	if n.isBranch() {
		if c.branches.Test(uint(n.ref())) {
			return index.Inconsistent("branch %d reachable twice", n.ref())
		}
		c.branches.Set(uint(n.ref()))

		b := *t.branches.MustGet(n.ref())
		if b.axis > geom.Z {
			return index.Inconsistent("branch %d splits on axis %d", n.ref(), b.axis)
		}

		left, right := domain, domain
		left.Upper[b.axis] = b.split
		right.Lower[b.axis] = b.split
		rightOpen := lowerOpen
		rightOpen[b.axis] = true

		if err := c.check(b.left, left, lowerOpen); err != nil {
			return err
		}
		return c.check(b.right, right, rightOpen)
	}

	if c.leaves.Test(uint(n.ref())) {
		return index.Inconsistent("leaf %d reachable twice", n.ref())
	}
	c.leaves.Set(uint(n.ref()))

	records := t.leaves.MustGet(n.ref()).records
	for _, r := range records {
		p := t.key(r)
		if !domain.Contains(p) {
			return index.Inconsistent("key %v outside %v", p, domain)
		}
		for d := range geom.Dim {
			if lowerOpen[d] && !(p[d] > domain.Lower[d]) {
				return index.Inconsistent("key %v right of split %g on %s is not greater", p, domain.Lower[d], geom.Axis(d))
			}
		}
	}
	if len(records) > t.opts.LeafSize && !coincident(t.key, records) {
		return index.Inconsistent("leaf holds %d records, leaf size %d", len(records), t.opts.LeafSize)
	}
	c.records += len(records)
	return nil
}

func coincident[R any](key index.KeyFunc[R], records []R) bool {
	for i := 1; i < len(records); i++ {
		if key(records[i]) != key(records[0]) {
			return false
		}
	}
	return true
}
