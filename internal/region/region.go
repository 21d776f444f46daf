// Package region defines the interval data model shared by the
// permutation-test engines (Reg, Chr) and a thin adapter onto
// github.com/biogo/store/interval, the interval-index collaborator
// the engine consumes but does not implement.
package region

import "github.com/biogo/store/interval"

// Reg is a single spliced, 0-based, closed [Beg, Beg+Len-1] interval on a
// real chromosome, tagged as either a target or a background region.
type Reg struct {
	Beg      uint32
	Len      uint32
	IsTarget bool
}

// End returns the inclusive end coordinate of r.
func (r Reg) End() uint32 { return r.Beg + r.Len - 1 }

// Chr is a named real chromosome together with its spliced region list
// and, once built for a given call length, the derived
// artificial-chromosome state.
type Chr struct {
	Name string
	Len  uint32
	Regs []Reg // disjoint, sorted ascending by Beg, no two touching neighbours share a tag

	// CallLen is the call length the artificial state below was built for;
	// zero means no artificial state has been built yet.
	CallLen uint64
	ALen    uint64 // length of the artificial coordinate space
	AMax    uint64 // inclusive max legal artificial start position
	TgtIdx  *interval.IntTree
	BgIdx   *interval.IntTree // only populated when needed (hit-no-bg / print-placements)

	// RealTgtIdx/RealBgIdx index Regs directly in real coordinates, used
	// when chr.Len <= the call length under test (the artificial path is
	// bypassed entirely). Built once, independent of call length.
	RealTgtIdx *interval.IntTree
	RealBgIdx  *interval.IntTree

	// Segments maps the artificial coordinate space back to real
	// coordinates, in ascending, contiguous, non-overlapping ArtBeg
	// order. Populated by achrom.Build alongside TgtIdx/BgIdx; used only
	// when a caller needs to translate an artificial placement back to a
	// real one (--print-placements).
	Segments []Segment
}

// Segment is one contiguous run of the artificial coordinate space
// [ArtBeg, ArtEnd) that maps linearly onto real coordinates starting at
// RealBeg: artificial position p translates to RealBeg + (p - ArtBeg).
type Segment struct {
	ArtBeg, ArtEnd uint64
	RealBeg        uint32
}

// BuildRealIndexes (re)builds chr.RealTgtIdx and, if needBg, chr.RealBgIdx
// from chr.Regs in real coordinates. Unlike the artificial indices these
// do not depend on call length and are built once per chromosome.
func BuildRealIndexes(chr *Chr, needBg bool) error {
	var tgt, bg []*Entry
	var id uintptr
	for _, r := range chr.Regs {
		e := NewEntry(id, int(r.Beg), int(r.Beg)+int(r.Len), int(r.Beg))
		id++
		if r.IsTarget {
			tgt = append(tgt, e)
		} else if needBg {
			bg = append(bg, e)
		}
	}
	idx, err := NewIndex(tgt)
	if err != nil {
		return err
	}
	chr.RealTgtIdx = idx
	if needBg {
		idx, err := NewIndex(bg)
		if err != nil {
			return err
		}
		chr.RealBgIdx = idx
	}
	return nil
}

// Reset invalidates any previously built artificial-chromosome state so
// it is rebuilt lazily on next use.
func (c *Chr) Reset() {
	c.CallLen = 0
	c.ALen = 0
	c.AMax = 0
	c.TgtIdx = nil
	c.BgIdx = nil
	c.Segments = nil
}

// Translate maps an artificial coordinate p back to a real coordinate
// using c.Segments, which must already be populated (by achrom.Build).
func (c *Chr) Translate(p uint64) (real uint32, ok bool) {
	lo, hi := 0, len(c.Segments)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.Segments[mid].ArtEnd <= p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(c.Segments) {
		return 0, false
	}
	seg := c.Segments[lo]
	if p < seg.ArtBeg {
		return 0, false
	}
	return seg.RealBeg + uint32(p-seg.ArtBeg), true
}

// Entry is an interval pushed into an interval.IntTree. Coordinates are
// half-open [Lo, Hi) to match interval.IntRange's convention (as used by
// biogo-examples/brahma's record/query types). Payload carries whatever the
// caller needs to translate a hit back to a real position or a label.
type Entry struct {
	id      uintptr
	Lo, Hi  int
	Payload int
}

// NewEntry builds an Entry with the given unique id, half-open range and
// payload value.
func NewEntry(id uintptr, lo, hi, payload int) *Entry {
	return &Entry{id: id, Lo: lo, Hi: hi, Payload: payload}
}

func (e *Entry) Range() interval.IntRange { return interval.IntRange{Start: e.Lo, End: e.Hi} }
func (e *Entry) ID() uintptr              { return e.id }
func (e *Entry) Overlap(b interval.IntRange) bool {
	return e.Hi > b.Start && e.Lo < b.End
}

// Query is a half-open range used to probe an interval.IntTree via
// DoMatching, mirroring biogo-examples/brahma's query type.
type Query struct{ Lo, Hi int }

func (q Query) Overlap(b interval.IntRange) bool {
	return q.Hi > b.Start && q.Lo < b.End
}

// Overlaps reports whether idx (which may be nil) holds any interval
// overlapping the half-open range [lo,hi).
func Overlaps(idx *interval.IntTree, lo, hi int) bool {
	if idx == nil {
		return false
	}
	found := false
	idx.DoMatching(func(interval.IntInterface) (done bool) {
		found = true
		return true
	}, Query{lo, hi})
	return found
}

// FirstMatch returns the payload of the first interval in idx overlapping
// [lo,hi) and whether a match was found.
func FirstMatch(idx *interval.IntTree, lo, hi int) (payload int, ok bool) {
	if idx == nil {
		return 0, false
	}
	idx.DoMatching(func(hit interval.IntInterface) (done bool) {
		payload = hit.(*Entry).Payload
		ok = true
		return true
	}, Query{lo, hi})
	return payload, ok
}

// AllMatches calls fn for every interval in idx overlapping [lo,hi).
func AllMatches(idx *interval.IntTree, lo, hi int, fn func(payload int)) {
	if idx == nil {
		return
	}
	idx.DoMatching(func(hit interval.IntInterface) (done bool) {
		fn(hit.(*Entry).Payload)
		return false
	}, Query{lo, hi})
}

// NewIndex builds an interval.IntTree from entries, calling AdjustRanges
// once after all insertions as required before any query (per
// biogo-examples/brahma's usage of interval.IntTree).
func NewIndex(entries []*Entry) (*interval.IntTree, error) {
	t := &interval.IntTree{}
	for _, e := range entries {
		if err := t.Insert(e, false); err != nil {
			return nil, err
		}
	}
	t.AdjustRanges()
	return t, nil
}
