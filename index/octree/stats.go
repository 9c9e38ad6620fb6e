package octree

import (
	"fmt"
	"strings"
)

// Stats summarizes the shape of the tree.
type Stats struct {
	Records           int
	Leaves            int
	EmptyLeaves       int
	Branches          int
	Depth             int
	MaxLeafOccupancy  int
	MeanLeafOccupancy float64 // Mean over non-empty leaves
	Promotions        int
	MemoryBytes       int
}

// Stats returns statistics about the tree.
func (t *Octree[R]) Stats() Stats {
	st := Stats{
		Records:     t.base.Len(),
		Promotions:  t.promotions,
		MemoryBytes: t.MemoryUsage(),
	}
	t.collect(t.root, 0, &st)
	if n := st.Leaves - st.EmptyLeaves; n > 0 {
		st.MeanLeafOccupancy = float64(st.Records) / float64(n)
	}
	return st
}

func (t *Octree[R]) collect(n nodeRef, depth int, st *Stats) {
	st.Depth = max(st.Depth, depth)
	if n.isBranch() {
		st.Branches++
		for _, c := range t.branches.MustGet(n.ref()).children {
			t.collect(c, depth+1, st)
		}
		return
	}
	st.Leaves++
	k := len(t.leaves.MustGet(n.ref()).records)
	if k == 0 {
		st.EmptyLeaves++
	}
	st.MaxLeafOccupancy = max(st.MaxLeafOccupancy, k)
}

// String returns a multi-line summary.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, "Octree:")
	fmt.Fprintf(&b, "\trecords = %d\n", s.Records)
	fmt.Fprintf(&b, "\tleaves = %d (%d empty)\n", s.Leaves, s.EmptyLeaves)
	fmt.Fprintf(&b, "\tbranches = %d\n", s.Branches)
	fmt.Fprintf(&b, "\tdepth = %d\n", s.Depth)
	fmt.Fprintf(&b, "\tleaf occupancy = max %d, mean %.2f\n", s.MaxLeafOccupancy, s.MeanLeafOccupancy)
	fmt.Fprintf(&b, "\tpromotions = %d\n", s.Promotions)
	fmt.Fprintf(&b, "\tmemory = %d bytes\n", s.MemoryBytes)
	return b.String()
}
