package testutil

import (
	"testing"

	"github.com/hupe1980/orq/geom"
	"github.com/stretchr/testify/assert"
)

func TestRecords(t *testing.T) {
	rng := NewRNG(4711)
	domain := geom.Cube(-1, 1)

	records := rng.Records(100, domain)

	assert.Len(t, records, 100)
	for i, r := range records {
		assert.Equal(t, uint32(i), r.ID)
		assert.True(t, domain.ContainsHalfOpen(r.Key), "key %v", r.Key)
	}
}

func TestClusteredRecords(t *testing.T) {
	rng := NewRNG(4711)
	domain := geom.Cube(0, 10)

	records := rng.ClusteredRecords(200, 3, 0.5, domain)

	assert.Len(t, records, 200)
	for _, r := range records {
		assert.True(t, domain.ContainsHalfOpen(r.Key), "key %v", r.Key)
	}
}

func TestLatticeRecords(t *testing.T) {
	rng := NewRNG(4711)
	domain := geom.Cube(0, 4)

	records := rng.LatticeRecords(50, 2, domain)

	for _, r := range records {
		for d := range geom.Dim {
			assert.Contains(t, []float64{0, 2}, r.Key[d])
		}
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	p1 := rng.Point(geom.Cube(0, 1))
	rng.Reset()
	p2 := rng.Point(geom.Cube(0, 1))

	assert.Equal(t, p1, p2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestShuffle(t *testing.T) {
	rng := NewRNG(1)
	records := rng.Records(20, geom.Cube(0, 1))

	shuffled := rng.Shuffle(records)

	assert.ElementsMatch(t, records, shuffled)
	assert.True(t, IDs(records).Equals(IDs(shuffled)))
}

func TestBruteForce(t *testing.T) {
	records := NewRecords(geom.Pt(0, 0, 0), geom.Pt(5, 5, 5), geom.Pt(9, 9, 9))

	bm := BruteForce(records, geom.Cube(0, 6))

	assert.Equal(t, []uint32{0, 1}, bm.ToArray())
	assert.True(t, BruteForce(records, geom.Empty()).IsEmpty())
}

func TestWindow(t *testing.T) {
	rng := NewRNG(3)
	domain := geom.Cube(0, 1)
	for range 10 {
		w := rng.Window(domain, 0.2)
		assert.False(t, w.IsEmpty())
		assert.True(t, domain.ContainsHalfOpen(w.Lower))
	}
}
