package octree

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/orq/index"
)

// Check verifies that every leaf's records lie in the leaf's domain, that the
// children of every branch tile its domain, that no leaf is over capacity
// where it could have been split, and that every allocated node is reachable.
func (t *Octree[R]) Check() error {
	if got := t.nodeDomain(t.root); got != t.domain {
		return index.Inconsistent("root domain %v, tree domain %v", got, t.domain)
	}

	c := &checker[R]{
		t:        t,
		leaves:   bitset.New(uint(t.leaves.Len())),
		branches: bitset.New(uint(t.branches.Len())),
	}
	if err := c.check(t.root, 0); err != nil {
		return err
	}

	if c.records != t.base.Len() {
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
	t        *Octree[R]
	leaves   *bitset.BitSet
	branches *bitset.BitSet
	records  int
}

func (c *checker[R]) check(n nodeRef, depth int) error {
	t := c.t

	if n.isBranch() {
		if c.branches.Test(uint(n.ref())) {
			return index.Inconsistent("branch %d reachable twice", n.ref())
		}
		c.branches.Set(uint(n.ref()))

		b := t.branches.MustGet(n.ref())
		if !b.domain.ContainsHalfOpen(b.mid) || b.mid != b.domain.Midpoint() {
			return index.Inconsistent("branch midpoint %v does not bisect %v", b.mid, b.domain)
		}
		for code, child := range b.children {
			want := b.domain.OctantBox(uint8(code), b.mid)
			if got := t.nodeDomain(child); got != want {
				return index.Inconsistent("child %d of branch %v covers %v, want %v", code, b.domain, got, want)
			}
			if err := c.check(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if c.leaves.Test(uint(n.ref())) {
		return index.Inconsistent("leaf %d reachable twice", n.ref())
	}
	c.leaves.Set(uint(n.ref()))

	l := t.leaves.MustGet(n.ref())
	for _, r := range l.records {
		if p := t.key(r); !l.domain.ContainsHalfOpen(p) {
			return index.Inconsistent("key %v outside leaf domain %v", p, l.domain)
		}
	}
	if len(l.records) > t.opts.LeafSize && t.splittable(l.domain, depth) {
		return index.Inconsistent("leaf %v holds %d records, leaf size %d", l.domain, len(l.records), t.opts.LeafSize)
	}
	c.records += len(l.records)
	return nil
}
