package kdtree

import (
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
)

// Report emits every record.
func (t *KDTree[R]) Report(sink index.Sink[R]) int {
	return t.report(t.root, sink)
}

func (t *KDTree[R]) report(n nodeRef, sink index.Sink[R]) int {
	if n.isBranch() {
		b := t.branches.MustGet(n.ref())
		left, right := b.left, b.right
		return t.report(left, sink) + t.report(right, sink)
	}
	return index.EmitAll(t.leaves.MustGet(n.ref()).records, sink)
}

// WindowQuery emits the records whose key lies in the closed window. At a
// branch it only descends into a side the window reaches on the split axis.
func (t *KDTree[R]) WindowQuery(window geom.BBox, sink index.Sink[R]) int {
	if window.IsEmpty() || t.Empty() {
		return 0
	}
	return t.windowQuery(t.root, window, sink)
}

func (t *KDTree[R]) windowQuery(n nodeRef, window geom.BBox, sink index.Sink[R]) int {
	if !n.isBranch() {
		return index.EmitInWindow(t.leaves.MustGet(n.ref()).records, t.key, window, sink)
	}

	b := *t.branches.MustGet(n.ref())
	count := 0
	if window.Lower[b.axis] <= b.split {
		count += t.windowQuery(b.left, window, sink)
	}
	if window.Upper[b.axis] > b.split {
		count += t.windowQuery(b.right, window, sink)
	}
	return count
}

// WindowQueryCheckDomain emits the records whose key lies in the closed
// window. It narrows domain at every split and reports a subtree without
// testing its records once the narrowed domain lies inside the window.
// domain must contain every record, for example Domain().
func (t *KDTree[R]) WindowQueryCheckDomain(window, domain geom.BBox, sink index.Sink[R]) int {
	if window.IsEmpty() || t.Empty() {
		return 0
	}
	return t.windowQueryCheckDomain(t.root, window, domain, sink)
}

func (t *KDTree[R]) windowQueryCheckDomain(n nodeRef, window, domain geom.BBox, sink index.Sink[R]) int {
	if domain.Inside(window) {
		return t.report(n, sink)
	}
	if !window.Overlaps(domain) {
		return 0
	}
	if !n.isBranch() {
		return index.EmitInWindow(t.leaves.MustGet(n.ref()).records, t.key, window, sink)
	}

	b := *t.branches.MustGet(n.ref())
	left, right := domain, domain
	left.Upper[b.axis] = b.split
	right.Lower[b.axis] = b.split
	return t.windowQueryCheckDomain(b.left, window, left, sink) +
		t.windowQueryCheckDomain(b.right, window, right, sink)
}
