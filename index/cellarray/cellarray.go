// Package cellarray provides a uniform grid range query index.
//
// The grid covers a fixed domain with cells of equal size. Each cell holds the
// handles of the records whose key falls into it. A window query visits only
// the cells the window overlaps, so its cost is roughly the number of those
// cells times the average cell occupancy.
package cellarray

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/hupe1980/orq/internal/assert"
	"github.com/hupe1980/orq/internal/resource"
)

// Compile-time checks to ensure CellArray satisfies required interfaces.
var _ index.Inserter[int] = (*CellArray[int])(nil)
var _ index.Clearer = (*CellArray[int])(nil)

// MaxCells bounds the number of cells a grid may allocate.
const MaxCells = 1 << 28

// Options contains configuration options for the cell array.
type Options struct {
	// MemoryLimitBytes caps the memory reserved for cells and record handles.
	// If 0, memory is tracked but not limited.
	MemoryLimitBytes int64
}

// DefaultOptions contains the default configuration options for the cell array.
var DefaultOptions = Options{
	MemoryLimitBytes: 0,
}

// CellArray is a dense uniform grid of record lists.
type CellArray[R any] struct {
	key    index.KeyFunc[R]
	base   index.Base
	domain geom.BBox

	extents    [geom.Dim]int
	cellSize   geom.Point
	invCellLen geom.Point
	cells      [][]R

	rc          *resource.Controller
	gridBytes   int64
	recordBytes int64
}

// New creates an empty grid over domain. The number of cells per axis is
// ceil(extent / desiredCellSize); the actual cell size is chosen so that the
// cells exactly tile the domain and may differ slightly from desiredCellSize.
func New[R any](key index.KeyFunc[R], domain geom.BBox, desiredCellSize float64, optFns ...func(o *Options)) (*CellArray[R], error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateDomain(domain); err != nil {
		return nil, err
	}
	if !(desiredCellSize > 0) || math.IsInf(desiredCellSize, 0) {
		return nil, fmt.Errorf("%w: %g", index.ErrInvalidCellSize, desiredCellSize)
	}

	c := &CellArray[R]{
		key:    key,
		domain: domain,
		rc:     resource.NewController(resource.Config{MemoryLimitBytes: opts.MemoryLimitBytes}),
	}

	numCells := 1
	ext := domain.Extents()
	for d := range geom.Dim {
		n := math.Ceil(ext[d] / desiredCellSize)
		if n < 1 {
			n = 1
		}
		if n > MaxCells || float64(numCells)*n > MaxCells {
			return nil, fmt.Errorf("%w: %g yields more than %d cells", index.ErrInvalidCellSize, desiredCellSize, MaxCells)
		}
		c.extents[d] = int(n)
		c.cellSize[d] = ext[d] / n
		c.invCellLen[d] = n / ext[d]
		numCells *= c.extents[d]
	}

	var zero R
	var cell []R
	c.recordBytes = int64(unsafe.Sizeof(zero))
	c.gridBytes = int64(numCells) * int64(unsafe.Sizeof(cell))

	if err := c.rc.AcquireMemory(c.gridBytes); err != nil {
		return nil, err
	}

	c.cells = make([][]R, numCells)

	return c, nil
}

// Domain returns the domain covered by the grid.
func (c *CellArray[R]) Domain() geom.BBox { return c.domain }

// Extents returns the number of cells along each axis.
func (c *CellArray[R]) Extents() [geom.Dim]int { return c.extents }

// CellSize returns the actual edge lengths of a cell.
func (c *CellArray[R]) CellSize() geom.Point { return c.cellSize }

// Len returns the number of records.
func (c *CellArray[R]) Len() int { return c.base.Len() }

// Empty reports whether the grid holds no records.
func (c *CellArray[R]) Empty() bool { return c.base.Empty() }

// cellCoord returns the clamped cell coordinate of v along axis d.
func (c *CellArray[R]) cellCoord(v float64, d int) int {
	// Clamp before converting; windows may have infinite bounds.
	f := math.Floor((v - c.domain.Lower[d]) * c.invCellLen[d])
	if !(f >= 0) {
		return 0
	}
	if f >= float64(c.extents[d]) {
		return c.extents[d] - 1
	}
	return int(f)
}

func (c *CellArray[R]) linear(i, j, k int) int {
	return (k*c.extents[1]+j)*c.extents[0] + i
}

func (c *CellArray[R]) cellIndex(p geom.Point) int {
	return c.linear(c.cellCoord(p[0], 0), c.cellCoord(p[1], 1), c.cellCoord(p[2], 2))
}

// Insert appends r to the cell containing its key.
func (c *CellArray[R]) Insert(r R) error {
	p := c.key(r)
	if !c.domain.ContainsHalfOpen(p) {
		return &index.ErrOutOfDomain{Key: p, Domain: c.domain}
	}
	if err := c.rc.AcquireMemory(c.recordBytes); err != nil {
		return err
	}

	i := c.cellIndex(p)
	assert.That(i >= 0 && i < len(c.cells), "cell index %d out of range", i)
	c.cells[i] = append(c.cells[i], r)
	c.base.Add(1)
	return nil
}

// InsertRange inserts records in order and stops at the first error.
func (c *CellArray[R]) InsertRange(records []R) error {
	for i, r := range records {
		if err := c.Insert(r); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

// Clear empties every cell and keeps the grid.
func (c *CellArray[R]) Clear() {
	for i := range c.cells {
		clear(c.cells[i])
		c.cells[i] = c.cells[i][:0]
	}
	c.rc.ReleaseMemory(int64(c.base.Len()) * c.recordBytes)
	c.base.Set(0)
}

// Report emits every record.
func (c *CellArray[R]) Report(sink index.Sink[R]) int {
	n := 0
	for _, cell := range c.cells {
		n += index.EmitAll(cell, sink)
	}
	return n
}

// WindowQuery emits the records whose key lies in the closed window.
func (c *CellArray[R]) WindowQuery(window geom.BBox, sink index.Sink[R]) int {
	if window.IsEmpty() || !window.OverlapsHalfOpen(c.domain) {
		return 0
	}

	var lo, hi [geom.Dim]int
	for d := range geom.Dim {
		lo[d] = c.cellCoord(window.Lower[d], d)
		hi[d] = c.cellCoord(window.Upper[d], d)
	}

	n := 0
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			row := c.linear(0, j, k)
			for i := lo[0]; i <= hi[0]; i++ {
				n += index.EmitInWindow(c.cells[row+i], c.key, window, sink)
			}
		}
	}
	return n
}

// MemoryUsage returns the grid overhead plus record handle storage.
func (c *CellArray[R]) MemoryUsage() int {
	return int(unsafe.Sizeof(*c)) + int(c.gridBytes) + c.base.Len()*int(c.recordBytes)
}

// Check verifies that every record is stored in the cell its key maps to and
// that the record count matches the cell contents.
func (c *CellArray[R]) Check() error {
	total := 0
	for i, cell := range c.cells {
		for _, r := range cell {
			p := c.key(r)
			if !c.domain.ContainsHalfOpen(p) {
				return index.Inconsistent("key %v outside domain %v", p, c.domain)
			}
			if got := c.cellIndex(p); got != i {
				return index.Inconsistent("key %v stored in cell %d, belongs to cell %d", p, i, got)
			}
		}
		total += len(cell)
	}
	if total != c.base.Len() {
		return index.Inconsistent("record count %d, cells hold %d", c.base.Len(), total)
	}
	return nil
}
