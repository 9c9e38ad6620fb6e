package octree

import (
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
)

func (t *Octree[R]) nodeDomain(n nodeRef) geom.BBox {
	if n.isBranch() {
		return t.branches.MustGet(n.ref()).domain
	}
	return t.leaves.MustGet(n.ref()).domain
}

// Report emits every record.
func (t *Octree[R]) Report(sink index.Sink[R]) int {
	return t.report(t.root, sink)
}

func (t *Octree[R]) report(n nodeRef, sink index.Sink[R]) int {
	if n.isBranch() {
		count := 0
		for _, c := range t.branches.MustGet(n.ref()).children {
			count += t.report(c, sink)
		}
		return count
	}
	return index.EmitAll(t.leaves.MustGet(n.ref()).records, sink)
}

// WindowQuery emits the records whose key lies in the closed window. It only
// descends into children whose domain intersects the window.
func (t *Octree[R]) WindowQuery(window geom.BBox, sink index.Sink[R]) int {
	if window.IsEmpty() || !window.OverlapsHalfOpen(t.domain) {
		return 0
	}
	return t.windowQuery(t.root, window, sink)
}

func (t *Octree[R]) windowQuery(n nodeRef, window geom.BBox, sink index.Sink[R]) int {
	if n.isBranch() {
		count := 0
		for _, c := range t.branches.MustGet(n.ref()).children {
			if window.OverlapsHalfOpen(t.nodeDomain(c)) {
				count += t.windowQuery(c, window, sink)
			}
		}
		return count
	}
	return index.EmitInWindow(t.leaves.MustGet(n.ref()).records, t.key, window, sink)
}

// WindowQueryCheckDomain emits the records whose key lies in the closed
// window. It ignores the domains stored in the nodes and bisects domain while
// descending instead; a subtree whose domain lies inside the window is
// reported without testing its records. domain must be the tree's domain.
//
// It pays off when results are much larger than the leaf size.
func (t *Octree[R]) WindowQueryCheckDomain(window, domain geom.BBox, sink index.Sink[R]) int {
	if window.IsEmpty() {
		return 0
	}
	return t.windowQueryCheckDomain(t.root, window, domain, sink)
}

func (t *Octree[R]) windowQueryCheckDomain(n nodeRef, window, domain geom.BBox, sink index.Sink[R]) int {
	if domain.Inside(window) {
		return t.report(n, sink)
	}
	if !window.OverlapsHalfOpen(domain) {
		return 0
	}
	if !n.isBranch() {
		return index.EmitInWindow(t.leaves.MustGet(n.ref()).records, t.key, window, sink)
	}

	mid := domain.Midpoint()
	count := 0
	for code, c := range t.branches.MustGet(n.ref()).children {
		count += t.windowQueryCheckDomain(c, window, domain.OctantBox(uint8(code), mid), sink)
	}
	return count
}
