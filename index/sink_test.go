package index

import (
	"testing"

	"github.com/hupe1980/orq/geom"
	"github.com/stretchr/testify/assert"
)

type rec struct {
	id  uint32
	key geom.Point
}

func recKey(r *rec) geom.Point { return r.key }

func TestSinks(t *testing.T) {
	a := &rec{id: 1, key: geom.Pt(1, 1, 1)}
	b := &rec{id: 7, key: geom.Pt(5, 5, 5)}

	t.Run("SliceSink", func(t *testing.T) {
		s := &SliceSink[*rec]{}
		s.Add(a)
		s.Add(b)
		assert.Equal(t, []*rec{a, b}, s.Records)

		s.Reset()
		assert.Empty(t, s.Records)
	})

	t.Run("FuncSink", func(t *testing.T) {
		var got []uint32
		s := FuncSink[*rec](func(r *rec) { got = append(got, r.id) })
		s.Add(b)
		assert.Equal(t, []uint32{7}, got)
	})

	t.Run("CountSink", func(t *testing.T) {
		s := &CountSink[*rec]{}
		s.Add(a)
		s.Add(a)
		assert.Equal(t, 2, s.N)
	})

	t.Run("BitmapSink", func(t *testing.T) {
		s1 := NewBitmapSink(func(r *rec) uint32 { return r.id })
		s2 := NewBitmapSink(func(r *rec) uint32 { return r.id })
		s1.Add(a)
		s1.Add(b)
		s2.Add(b)
		s2.Add(a)

		assert.True(t, s1.Bitmap.Equals(s2.Bitmap), "order does not matter")
		assert.Equal(t, uint64(2), s1.Bitmap.GetCardinality())

		s1.Reset()
		assert.True(t, s1.Bitmap.IsEmpty())
	})
}

func TestEmit(t *testing.T) {
	records := []*rec{
		{id: 0, key: geom.Pt(0, 0, 0)},
		{id: 1, key: geom.Pt(5, 5, 5)},
		{id: 2, key: geom.Pt(9, 9, 9)},
	}

	s := &SliceSink[*rec]{}
	n := EmitInWindow(records, recKey, geom.Cube(0, 5), s)
	assert.Equal(t, 2, n)
	assert.Equal(t, records[:2], s.Records)

	c := &CountSink[*rec]{}
	assert.Equal(t, 3, EmitAll(records, c))
	assert.Equal(t, 3, c.N)
}

func TestBase(t *testing.T) {
	var b Base
	assert.True(t, b.Empty())

	b.Add(3)
	b.Sub(1)
	assert.Equal(t, 2, b.Len())
	assert.False(t, b.Empty())

	b.Set(0)
	assert.True(t, b.Empty())
}

func TestErrors(t *testing.T) {
	assert.NoError(t, ValidateDomain(geom.Cube(0, 1)))
	assert.ErrorIs(t, ValidateDomain(geom.Cube(1, 0)), ErrInvalidDomain)
	assert.ErrorIs(t, ValidateLeafSize(0), ErrInvalidLeafSize)
	assert.NoError(t, ValidateLeafSize(1))
	assert.ErrorIs(t, Inconsistent("leaf %d", 3), ErrInconsistent)

	err := &ErrOutOfDomain{Key: geom.Pt(11, 0, 0), Domain: geom.Cube(0, 10)}
	assert.Contains(t, err.Error(), "outside domain")
}
