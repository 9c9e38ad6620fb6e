package cellarray

import (
	"fmt"
	"strings"

	"github.com/hupe1980/orq/geom"
)

// Stats summarizes the occupancy of the grid.
type Stats struct {
	Records       int
	Cells         int
	NonEmptyCells int
	MaxOccupancy  int
	MeanOccupancy float64 // Mean over non-empty cells
	Extents       [geom.Dim]int
	CellSize      geom.Point
	MemoryBytes   int
}

// Stats returns statistics about the grid.
func (c *CellArray[R]) Stats() Stats {
	st := Stats{
		Records:     c.base.Len(),
		Cells:       len(c.cells),
		Extents:     c.extents,
		CellSize:    c.cellSize,
		MemoryBytes: c.MemoryUsage(),
	}
	for _, cell := range c.cells {
		if len(cell) == 0 {
			continue
		}
		st.NonEmptyCells++
		st.MaxOccupancy = max(st.MaxOccupancy, len(cell))
	}
	if st.NonEmptyCells > 0 {
		st.MeanOccupancy = float64(st.Records) / float64(st.NonEmptyCells)
	}
	return st
}

// String returns a multi-line summary.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, "CellArray:")
	fmt.Fprintf(&b, "\trecords = %d\n", s.Records)
	fmt.Fprintf(&b, "\textents = %d x %d x %d\n", s.Extents[0], s.Extents[1], s.Extents[2])
	fmt.Fprintf(&b, "\tcell size = %v\n", s.CellSize)
	fmt.Fprintf(&b, "\tnon-empty cells = %d / %d\n", s.NonEmptyCells, s.Cells)
	fmt.Fprintf(&b, "\toccupancy = max %d, mean %.2f\n", s.MaxOccupancy, s.MeanOccupancy)
	fmt.Fprintf(&b, "\tmemory = %d bytes\n", s.MemoryBytes)
	return b.String()
}
