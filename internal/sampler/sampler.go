// Package sampler draws a chromosome at random with probability
// proportional to the length supplied for it (both drivers supply the
// real chromosome length, chr.Len).
//
// Two implementations share the Sampler interface. Discretised is
// grounded on init_bin2chr in original_source/perm-test/perm-test.c: it
// precomputes a fixed 2^16-entry lookup table so sampling is an O(1)
// array index at the cost of a small length-discretisation error.
// Exact is a binary search over cumulative length, used as a fallback
// whenever the discretised table would starve a nonzero-length
// chromosome of every bin.
package sampler

import (
	"math/rand"
	"sort"

	"github.com/pd3/utils/internal/region"
)

// NBins is the number of slots in the discretised lookup table, matching
// init_bin2chr's 2^16 table size in perm-test.c.
const NBins = 1 << 16

// Sampler draws a chromosome at random with probability proportional to
// the length supplied for it.
type Sampler interface {
	// Sample returns the chromosome chosen for this draw.
	Sample(rng *rand.Rand) *region.Chr
	// MaxDiscretisationError reports the largest per-chromosome relative
	// sampling-probability error introduced by discretisation, as a
	// fraction (not a percentage). Exact always returns 0.
	MaxDiscretisationError() float64
}

// New builds the appropriate Sampler for chrs, each with an associated
// sampling length in lens (both drivers pass the real chromosome length,
// chr.Len).
//
// It returns a Discretised sampler unless that table would assign zero
// bins to some chromosome with positive length, in which case it falls
// back to Exact so that chromosome still gets a nonzero draw probability.
func New(chrs []*region.Chr, lens []uint64) Sampler {
	d := newDiscretised(chrs, lens)
	if d.starved() {
		return newExact(chrs, lens)
	}
	return d
}

// Discretised is the 2^16-bin sampler grounded on init_bin2chr.
type Discretised struct {
	chrs  []*region.Chr
	table []*region.Chr // NBins entries, chr i occupies round(len_i/total*NBins) of them
	maxErr float64
}

func newDiscretised(chrs []*region.Chr, lens []uint64) *Discretised {
	var total uint64
	for _, l := range lens {
		total += l
	}
	d := &Discretised{chrs: chrs}
	if total == 0 || len(chrs) == 0 {
		return d
	}

	bins := make([]int, len(chrs))
	assigned := 0
	for i, l := range lens {
		// round(len_i/total * NBins), matching init_bin2chr's
		// (int)(len*NBINS/total_len + 0.5) rounding.
		b := int((float64(l)*float64(NBins))/float64(total) + 0.5)
		bins[i] = b
		assigned += b
	}
	// Correct rounding drift against the largest chromosome so the table
	// sums to exactly NBins, the way init_bin2chr assigns any remainder
	// to the last populated bin.
	if diff := NBins - assigned; diff != 0 {
		maxIdx := 0
		for i, l := range lens {
			if l > lens[maxIdx] {
				maxIdx = i
			}
		}
		bins[maxIdx] += diff
		if bins[maxIdx] < 0 {
			bins[maxIdx] = 0
		}
	}

	d.table = make([]*region.Chr, 0, NBins)
	for i, n := range bins {
		for j := 0; j < n; j++ {
			d.table = append(d.table, chrs[i])
		}
	}
	// Trim/pad defensively in case of rounding edge cases so len==NBins.
	for len(d.table) < NBins {
		d.table = append(d.table, chrs[len(chrs)-1])
	}
	if len(d.table) > NBins {
		d.table = d.table[:NBins]
	}

	for i, l := range lens {
		if l == 0 {
			continue
		}
		want := float64(l) / float64(total)
		got := float64(bins[i]) / float64(NBins)
		if e := relErr(want, got); e > d.maxErr {
			d.maxErr = e
		}
	}
	return d
}

func relErr(want, got float64) float64 {
	if want == 0 {
		return 0
	}
	e := (got - want) / want
	if e < 0 {
		e = -e
	}
	return e
}

// starved reports whether any chromosome with positive length (chr.Len)
// received zero bins in the table.
func (d *Discretised) starved() bool {
	if len(d.table) == 0 {
		return false
	}
	seen := make(map[*region.Chr]bool, len(d.chrs))
	for _, c := range d.table {
		seen[c] = true
	}
	for _, c := range d.chrs {
		if !seen[c] && c.Len > 0 {
			return true
		}
	}
	return false
}

func (d *Discretised) Sample(rng *rand.Rand) *region.Chr {
	if len(d.table) == 0 {
		return nil
	}
	return d.table[rng.Intn(NBins)]
}

func (d *Discretised) MaxDiscretisationError() float64 { return d.maxErr }

// Exact draws a chromosome by binary search over cumulative length,
// giving zero discretisation error at the cost of an O(log n) draw.
type Exact struct {
	chrs []*region.Chr
	cum  []uint64 // cum[i] = sum of lens[0..i], strictly increasing over entries with len>0
	total uint64
}

func newExact(chrs []*region.Chr, lens []uint64) *Exact {
	e := &Exact{chrs: chrs, cum: make([]uint64, len(lens))}
	var running uint64
	for i, l := range lens {
		running += l
		e.cum[i] = running
	}
	e.total = running
	return e
}

func (e *Exact) Sample(rng *rand.Rand) *region.Chr {
	if e.total == 0 || len(e.chrs) == 0 {
		return nil
	}
	x := uint64(rng.Int63n(int64(e.total))) + 1
	i := sort.Search(len(e.cum), func(i int) bool { return e.cum[i] >= x })
	return e.chrs[i]
}

func (e *Exact) MaxDiscretisationError() float64 { return 0 }
