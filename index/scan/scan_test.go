package scan

import (
	"testing"

	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	points := []geom.Point{geom.Pt(0, 0, 0), geom.Pt(5, 5, 5), geom.Pt(9, 9, 9)}
	s := New(func(i int) geom.Point { return points[i] })

	require.NoError(t, s.InsertRange([]int{0, 1}))
	require.NoError(t, s.Insert(2))
	assert.Equal(t, 3, s.Len())
	assert.NoError(t, s.Check())

	sink := &index.SliceSink[int]{}
	assert.Equal(t, 2, s.WindowQuery(geom.Cube(0, 6), sink))
	assert.Equal(t, []int{0, 1}, sink.Records)

	all := &index.CountSink[int]{}
	assert.Equal(t, 3, s.Report(all))

	before := s.MemoryUsage()
	s.Clear()
	assert.True(t, s.Empty())
	assert.Less(t, s.MemoryUsage(), before)
}
