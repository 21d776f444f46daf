// Package distbin implements a bounded-memory long-tail histogram:
// values below 10^NPrecise get their own exact bin, values at or above
// it are tiled into geometrically widening decade bins: 10^NPrecise exact
// bins plus 9*10^(NPrecise-1) bins for each decade that holds a value, so
// the bin count grows with log10(maxValue).
//
// original_source/dist/dist.c exercises this structure as a standalone
// CLI, but its actual binning logic lived in dist.h, which was not part
// of the retrieved source; the bin boundaries here are derived directly
// from the required contract (bounded bin count, monotonic width, no gap
// or overlap between consecutive bins) rather than transliterated.
package distbin

import "fmt"

// Dist is a log-bin distribution over non-negative integer values.
type Dist struct {
	nPrecise int
	precise  []uint64 // exact counts for values [0, 10^nPrecise)
	decades  []decade // one entry per populated decade at or above 10^nPrecise
	preciseLimit uint64
}

type decade struct {
	width uint64   // bin width within this decade, 10^(d-nPrecise+1)
	start uint64   // first value covered by this decade (a multiple of width)
	bins  []uint64 // counts, one per bin of size width
}

// New returns an empty distribution with nPrecise exact low-end digits.
// nPrecise must be >= 1 (smaller values are treated as 1); a typical
// value is 3-6.
func New(nPrecise int) *Dist {
	if nPrecise < 1 {
		nPrecise = 1
	}
	limit := pow10(nPrecise)
	return &Dist{
		nPrecise:     nPrecise,
		precise:      make([]uint64, limit),
		preciseLimit: limit,
	}
}

func pow10(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// Insert records one observation of value v.
func (d *Dist) Insert(v uint64) {
	if v < d.preciseLimit {
		d.precise[v]++
		return
	}
	width, decExp := d.decadeFor(v)
	idx := d.findOrCreateDecade(decExp, width)
	bin := (v - d.decades[idx].start) / width
	d.decades[idx].bins[bin]++
}

// decadeFor returns the bin width and exponent of the decade containing
// v: decade d covers [10^d, 10^(d+1)) with bin width 10^(d-nPrecise+1).
func (d *Dist) decadeFor(v uint64) (width uint64, decExp int) {
	decExp = d.nPrecise
	upper := pow10(decExp + 1)
	for v >= upper {
		decExp++
		upper = pow10(decExp + 1)
	}
	width = pow10(decExp - d.nPrecise + 1)
	return width, decExp
}

func (d *Dist) findOrCreateDecade(decExp int, width uint64) int {
	lower := pow10(decExp)
	nBins := int((pow10(decExp+1) - lower) / width)
	for i := range d.decades {
		if d.decades[i].start == lower {
			return i
		}
	}
	// Decades are kept sorted by start so Get can walk them in ascending
	// value order; insert at the position that preserves that order.
	pos := len(d.decades)
	for i := range d.decades {
		if d.decades[i].start > lower {
			pos = i
			break
		}
	}
	d.decades = append(d.decades, decade{})
	copy(d.decades[pos+1:], d.decades[pos:])
	d.decades[pos] = decade{
		width: width,
		start: lower,
		bins:  make([]uint64, nBins),
	}
	return pos
}

// Len returns the number of materialised bins: every precise bin, plus
// every bin of each decade that has received at least one value. Bins
// with a zero count are included; decades that never received a value
// are not.
func (d *Dist) Len() int {
	n := len(d.precise)
	for _, dec := range d.decades {
		n += len(dec.bins)
	}
	return n
}

// Get returns the half-open value range [beg,end) and observation count
// of the i'th bin, in ascending order of value.
func (d *Dist) Get(i int) (beg, end uint64, count uint64) {
	if i < len(d.precise) {
		return uint64(i), uint64(i) + 1, d.precise[i]
	}
	i -= len(d.precise)
	for _, dec := range d.decades {
		if i < len(dec.bins) {
			beg = dec.start + uint64(i)*dec.width
			return beg, beg + dec.width, dec.bins[i]
		}
		i -= len(dec.bins)
	}
	panic(fmt.Sprintf("distbin: bin index out of range"))
}

// Total returns the sum of all bin counts.
func (d *Dist) Total() uint64 {
	var total uint64
	for _, c := range d.precise {
		total += c
	}
	for _, dec := range d.decades {
		for _, c := range dec.bins {
			total += c
		}
	}
	return total
}
