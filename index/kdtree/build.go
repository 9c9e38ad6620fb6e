package kdtree

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/internal/assert"
	"github.com/hupe1980/orq/internal/resource"
)

// Views holds the same record set sorted by x, y and z respectively.
type Views[R any] [geom.Dim][]R

// Presort returns copies of records sorted along each axis. The three sorts
// run concurrently; records itself is not modified. A sort that has not
// started when ctx is cancelled is skipped and ctx's error is returned.
func Presort[R any](ctx context.Context, key index.KeyFunc[R], records []R) (Views[R], error) {
	var views Views[R]
	g, gctx := errgroup.WithContext(ctx)
	for d := range geom.Dim {
		views[d] = slices.Clone(records)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slices.SortStableFunc(views[d], func(a, b R) int {
				return cmp.Compare(key(a)[d], key(b)[d])
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Views[R]{}, err
	}
	return views, nil
}

func validateViews[R any](key index.KeyFunc[R], views Views[R]) error {
	n := len(views[0])
	for d := range geom.Dim {
		if len(views[d]) != n {
			return fmt.Errorf("%w: %s view has %d records, x view has %d", index.ErrViewLengthMismatch, geom.Axis(d), len(views[d]), n)
		}
		v := views[d]
		for i := 1; i < len(v); i++ {
			if key(v[i])[d] < key(v[i-1])[d] {
				return fmt.Errorf("%w: %s view at %d", index.ErrUnsortedView, geom.Axis(d), i)
			}
		}
	}
	return nil
}

type builder[R any] struct {
	t       *KDTree[R]
	scratch []R
	res     *resource.Reservation
}

// build creates the subtree for the record subset given by views. All three
// views hold the same subset; on return the views are partitioned in place.
func (b *builder[R]) build(views Views[R]) (nodeRef, error) {
	t := b.t
	n := len(views[0])

	if n <= t.opts.LeafSize {
		return b.leaf(views[0])
	}

	axis, spread := b.widestAxis(views)
	if spread == 0 {
		// Every record shares one key; no split separates them.
		return b.leaf(views[0])
	}

	split := b.splitValue(views[axis], axis)
	nl := sort.Search(n, func(i int) bool {
		return t.key(views[axis][i])[axis] > split
	})
	assert.That(nl > 0 && nl < n, "split %g on %s leaves an empty side (%d of %d)", split, axis, nl, n)

	var left, right Views[R]
	for d := range geom.Dim {
		if geom.Axis(d) != axis {
			b.partition(views[d], axis, split, nl)
		}
		left[d] = views[d][:nl]
		right[d] = views[d][nl:]
	}

	l, err := b.build(left)
	if err != nil {
		return 0, err
	}
	r, err := b.build(right)
	if err != nil {
		return 0, err
	}
	return b.branch(branch{axis: axis, split: split, left: l, right: r})
}

// widestAxis returns the axis with the largest key spread in the subset.
// Ties go to the lower axis.
func (b *builder[R]) widestAxis(views Views[R]) (geom.Axis, float64) {
	key := b.t.key
	n := len(views[0])
	best, bestSpread := geom.X, -1.0
	for d := range geom.Dim {
		s := key(views[d][n-1])[d] - key(views[d][0])[d]
		if s > bestSpread {
			best, bestSpread = geom.Axis(d), s
		}
	}
	return best, bestSpread
}

// splitValue returns the key of the lower median on axis. If that equals the
// largest key, it returns the largest key below it instead so that the right
// side is never empty.
func (b *builder[R]) splitValue(sorted []R, axis geom.Axis) float64 {
	key := b.t.key
	n := len(sorted)
	hi := key(sorted[n-1])[axis]
	m := key(sorted[(n-1)/2])[axis]
	if m < hi {
		return m
	}
	i := sort.Search(n, func(i int) bool {
		return key(sorted[i])[axis] >= hi
	})
	return key(sorted[i-1])[axis]
}

// partition moves the records of view with key not greater than split on
// axis to the front, preserving relative order on both sides.
func (b *builder[R]) partition(view []R, axis geom.Axis, split float64, nl int) {
	key := b.t.key
	w := 0
	greater := b.scratch[:0]
	for _, r := range view {
		if key(r)[axis] <= split {
			view[w] = r
			w++
		} else {
			greater = append(greater, r)
		}
	}
	copy(view[w:], greater)
	clear(greater)
	assert.That(w == nl, "partition on %s kept %d records, want %d", axis, w, nl)
}

func (b *builder[R]) leaf(records []R) (nodeRef, error) {
	t := b.t
	if err := b.res.Acquire(t.leafBytes); err != nil {
		return 0, err
	}
	ref, err := t.leaves.Alloc(leaf[R]{records: records})
	if err != nil {
		return 0, err
	}
	return leafNode(ref), nil
}

func (b *builder[R]) branch(br branch) (nodeRef, error) {
	t := b.t
	if err := b.res.Acquire(t.branchBytes); err != nil {
		return 0, err
	}
	ref, err := t.branches.Alloc(br)
	if err != nil {
		return 0, err
	}
	return branchNode(ref), nil
}
