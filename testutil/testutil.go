package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/orq/geom"
)

// Record is a minimal record type for tests: an id and a key.
type Record struct {
	ID  uint32
	Key geom.Point
}

// Key returns the key of a record. It satisfies index.KeyFunc[*Record].
func Key(r *Record) geom.Point { return r.Key }

// ID returns the id of a record.
func ID(r *Record) uint32 { return r.ID }

// NewRecords wraps points in records with ids 0..len(points)-1.
func NewRecords(points ...geom.Point) []*Record {
	records := make([]*Record, len(points))
	for i, p := range points {
		records[i] = &Record{ID: uint32(i), Key: p}
	}
	return records
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

func (r *RNG) pointLocked(domain geom.BBox) geom.Point {
	var p geom.Point
	for d := range geom.Dim {
		lo, hi := domain.Lower[d], domain.Upper[d]
		p[d] = lo + r.rand.Float64()*(hi-lo)
		if p[d] >= hi {
			p[d] = math.Nextafter(hi, lo)
		}
	}
	return p
}

// Point returns a uniform random point in the half-open domain.
func (r *RNG) Point(domain geom.BBox) geom.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointLocked(domain)
}

// Records generates n records uniformly distributed in the half-open domain.
func (r *RNG) Records(n int, domain geom.BBox) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*Record, n)
	for i := range n {
		records[i] = &Record{ID: uint32(i), Key: r.pointLocked(domain)}
	}
	return records
}

// ClusteredRecords generates n records around the given number of cluster
// centers. spread is the standard deviation relative to the domain extent.
// Keys are clamped into the half-open domain.
func (r *RNG) ClusteredRecords(n, clusters int, spread float64, domain geom.BBox) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clusters < 1 {
		clusters = 1
	}
	centers := make([]geom.Point, clusters)
	for i := range centers {
		centers[i] = r.pointLocked(domain)
	}

	ext := domain.Extents()
	records := make([]*Record, n)
	for i := range n {
		c := centers[r.rand.Intn(clusters)]
		var p geom.Point
		for d := range geom.Dim {
			v := c[d] + r.rand.NormFloat64()*spread*ext[d]
			v = math.Max(v, domain.Lower[d])
			if v >= domain.Upper[d] {
				v = math.Nextafter(domain.Upper[d], domain.Lower[d])
			}
			p[d] = v
		}
		records[i] = &Record{ID: uint32(i), Key: p}
	}
	return records
}

// LatticeRecords generates n records on a lattice with perAxis points per
// axis, so that many records share coordinates and some share keys.
func (r *RNG) LatticeRecords(n, perAxis int, domain geom.BBox) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if perAxis < 1 {
		perAxis = 1
	}
	ext := domain.Extents()
	records := make([]*Record, n)
	for i := range n {
		var p geom.Point
		for d := range geom.Dim {
			p[d] = domain.Lower[d] + float64(r.rand.Intn(perAxis))*ext[d]/float64(perAxis)
		}
		records[i] = &Record{ID: uint32(i), Key: p}
	}
	return records
}

// Window returns a random closed window whose edges are at most maxExtent
// long and whose lower corner lies in domain. The window may stick out of
// the domain.
func (r *RNG) Window(domain geom.BBox, maxExtent float64) geom.BBox {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo := r.pointLocked(domain)
	var hi geom.Point
	for d := range geom.Dim {
		hi[d] = lo[d] + r.rand.Float64()*maxExtent
	}
	return geom.NewBBox(lo, hi)
}

// Shuffle returns a shuffled copy of records.
func (r *RNG) Shuffle(records []*Record) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Record, len(records))
	copy(out, records)
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// BruteForce returns the ids of the records whose key lies in the closed window.
func BruteForce(records []*Record, window geom.BBox) *roaring.Bitmap {
	bm := roaring.New()
	for _, rec := range records {
		if window.Contains(rec.Key) {
			bm.Add(rec.ID)
		}
	}
	return bm
}

// IDs returns the ids of records as a bitmap.
func IDs(records []*Record) *roaring.Bitmap {
	bm := roaring.New()
	for _, rec := range records {
		bm.Add(rec.ID)
	}
	return bm
}
