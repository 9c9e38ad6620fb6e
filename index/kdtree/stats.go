package kdtree

import (
	"fmt"
	"strings"
)

// Stats summarizes the shape of the tree.
type Stats struct {
	Records           int
	Leaves            int
	Branches          int
	Depth             int
	MaxLeafOccupancy  int
	MeanLeafOccupancy float64
	Splits            [3]int // Branches per split axis
	MemoryBytes       int
}

// Stats returns statistics about the tree.
func (t *KDTree[R]) Stats() Stats {
	st := Stats{
		Records:     t.base.Len(),
		MemoryBytes: t.MemoryUsage(),
	}
	t.collect(t.root, 0, &st)
	if st.Leaves > 0 {
		st.MeanLeafOccupancy = float64(st.Records) / float64(st.Leaves)
	}
	return st
}

func (t *KDTree[R]) collect(n nodeRef, depth int, st *Stats) {
	st.Depth = max(st.Depth, depth)
	if n.isBranch() {
		b := *t.branches.MustGet(n.ref())
		st.Branches++
		st.Splits[b.axis]++
		t.collect(b.left, depth+1, st)
		t.collect(b.right, depth+1, st)
		return
	}
	st.Leaves++
	st.MaxLeafOccupancy = max(st.MaxLeafOccupancy, len(t.leaves.MustGet(n.ref()).records))
}

// String returns a multi-line summary.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, "KDTree:")
	fmt.Fprintf(&b, "\trecords = %d\n", s.Records)
	fmt.Fprintf(&b, "\tleaves = %d\n", s.Leaves)
	fmt.Fprintf(&b, "\tbranches = %d (x %d, y %d, z %d)\n", s.Branches, s.Splits[0], s.Splits[1], s.Splits[2])
	fmt.Fprintf(&b, "\tdepth = %d\n", s.Depth)
	fmt.Fprintf(&b, "\tleaf occupancy = max %d, mean %.2f\n", s.MaxLeafOccupancy, s.MeanLeafOccupancy)
	fmt.Fprintf(&b, "\tmemory = %d bytes\n", s.MemoryBytes)
	return b.String()
}
