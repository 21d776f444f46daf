package distbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// With n_precise=1, inserting 1..50 puts value 1 in its own bin [1,2)
// with count=1; all bins sum to 50.
func TestLogBinSmokeTest(t *testing.T) {
	d := New(1)
	for v := 1; v <= 50; v++ {
		d.Insert(uint64(v))
	}

	beg, end, count := d.Get(1)
	assert.EqualValues(t, 1, beg)
	assert.EqualValues(t, 2, end)
	assert.EqualValues(t, 1, count)

	assert.EqualValues(t, 50, d.Total())
}

// Bins must tile [0,inf) without gap or overlap and in ascending order.
func TestTilingIsContiguousAndOrdered(t *testing.T) {
	d := New(2)
	for v := uint64(0); v < 500; v++ {
		d.Insert(v)
	}

	var prevEnd uint64
	for i := 0; i < d.Len(); i++ {
		beg, end, _ := d.Get(i)
		assert.Equal(t, prevEnd, beg, "bin %d should start where the previous one ended", i)
		assert.Greater(t, end, beg)
		prevEnd = end
	}
	assert.EqualValues(t, 500, d.Total())
}

func TestPreciseRangeIsExact(t *testing.T) {
	d := New(3)
	d.Insert(0)
	d.Insert(0)
	d.Insert(999)

	beg, end, count := d.Get(0)
	assert.EqualValues(t, 0, beg)
	assert.EqualValues(t, 1, end)
	assert.EqualValues(t, 2, count)

	beg, end, count = d.Get(999)
	assert.EqualValues(t, 999, beg)
	assert.EqualValues(t, 1000, end)
	assert.EqualValues(t, 1, count)
}

func TestDecadeBinWidthsGrow(t *testing.T) {
	d := New(1)
	d.Insert(10)  // first decade above the precise range, width 10
	d.Insert(99)  // last bin of that decade
	d.Insert(100) // first bin of the next decade, width 100

	// Values 10..99 sit in width-10 bins, values 100..999 in width-100
	// bins: bin width within decade d is 10^(d-n_precise+1).
	beg, end, count := findBinFor(t, d, 10)
	assert.EqualValues(t, 10, beg)
	assert.EqualValues(t, 20, end)
	assert.EqualValues(t, 1, count)

	beg, end, count = findBinFor(t, d, 99)
	assert.EqualValues(t, 90, beg)
	assert.EqualValues(t, 100, end)
	assert.EqualValues(t, 1, count)

	beg, end, count = findBinFor(t, d, 100)
	assert.EqualValues(t, 100, beg)
	assert.EqualValues(t, 200, end)
	assert.EqualValues(t, 1, count)
}

// findBinFor is a small test helper locating the bin containing v by
// linear scan, used only to keep the assertions above readable.
func findBinFor(t *testing.T, dist *Dist, v uint64) (beg, end, count uint64) {
	t.Helper()
	for i := 0; i < dist.Len(); i++ {
		b, e, c := dist.Get(i)
		if v >= b && v < e {
			return b, e, c
		}
	}
	t.Fatalf("no bin found for value %d", v)
	return 0, 0, 0
}
