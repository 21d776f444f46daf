// Package achrom builds the per-chromosome "artificial chromosome": for
// a fixed call length L, it condenses a real chromosome's spliced,
// accessible regions into a contiguous coordinate space in which every
// position is a legal placement site for an L-bp call.
//
// Grounded on init_chr and update_alen_amax in
// original_source/perm-test/perm-test.c.
package achrom

import (
	"fmt"

	"github.com/pd3/utils/internal/region"
)

// Options controls which indices Build populates, mirroring perm-test's
// --no-bg-overlap and --print-placements flags.
type Options struct {
	// NeedBgIdx requests a background index in artificial coordinates,
	// required by --no-bg-overlap and --print-placements.
	NeedBgIdx bool
}

// Build (re)constructs chr's artificial-chromosome state for call length
// callLen. It assumes chr.Len > callLen; callers must test the
// chromosome's real target index directly rather than call Build when
// the call length reaches or exceeds the chromosome length.
func Build(chr *region.Chr, callLen uint64, opts Options) error {
	if callLen == 0 {
		return fmt.Errorf("achrom: call length must be positive")
	}
	chr.Reset()
	chr.CallLen = callLen

	b := &builder{chr: chr, callLen: callLen}

	if len(chr.Regs) == 0 {
		idx, err := region.NewIndex(nil)
		if err != nil {
			return err
		}
		chr.TgtIdx = idx
		if opts.NeedBgIdx {
			chr.BgIdx, _ = region.NewIndex(nil)
		}
		chr.AMax = 0
		return nil
	}

	var tgtEntries, bgEntries []*region.Entry
	var id uintptr

	push := func(lo, hi uint64, beg uint32, isTarget bool) {
		e := region.NewEntry(id, int(lo), int(hi), int(beg))
		id++
		if isTarget {
			tgtEntries = append(tgtEntries, e)
		} else if opts.NeedBgIdx {
			bgEntries = append(bgEntries, e)
		}
	}

	var segs []region.Segment

	if callLen == 1 {
		for _, r := range chr.Regs {
			segs = append(segs, region.Segment{ArtBeg: chr.ALen, ArtEnd: chr.ALen + uint64(r.Len), RealBeg: r.Beg})
			push(chr.ALen, chr.ALen+uint64(r.Len), r.Beg, r.IsTarget)
			chr.ALen += uint64(r.Len)
		}
		chr.AMax = chr.ALen - 1
	} else {
		clen1 := callLen - 1
		var repEnd1 uint64
		for _, r := range chr.Regs {
			regBeg := uint64(r.Beg)
			regLen := uint64(r.Len)

			var pbeg uint64
			if regBeg >= clen1 {
				pbeg = regBeg - clen1
			}
			if pbeg < repEnd1 {
				pbeg = repEnd1
			}
			if pbeg < regBeg {
				// Anonymous left overhang: grows the artificial coordinate
				// space but is never itself indexed as a hit. Calls that
				// start here reach into r when translated back to real
				// coordinates, which can land before r.Beg, in the
				// inaccessible gap the splicer dropped.
				extLen := regBeg - pbeg
				segs = append(segs, region.Segment{ArtBeg: chr.ALen, ArtEnd: chr.ALen + extLen, RealBeg: uint32(pbeg)})
				b.updateAlenAmax(extLen, pbeg)
			}

			segs = append(segs, region.Segment{ArtBeg: chr.ALen, ArtEnd: chr.ALen + regLen, RealBeg: r.Beg})
			push(chr.ALen, chr.ALen+regLen, r.Beg, r.IsTarget)
			b.updateAlenAmax(regLen, regBeg)
			repEnd1 = regBeg + regLen
		}
		if !b.amaxSet {
			chr.AMax = chr.ALen - 1
		}
	}
	chr.Segments = segs

	idx, err := region.NewIndex(tgtEntries)
	if err != nil {
		return err
	}
	chr.TgtIdx = idx
	if opts.NeedBgIdx {
		chr.BgIdx, err = region.NewIndex(bgEntries)
		if err != nil {
			return err
		}
	}
	return nil
}

// builder tracks the sticky "has amax been fixed yet" state while ALen
// and AMax are grown incrementally.
type builder struct {
	chr     *region.Chr
	callLen uint64
	amaxSet bool
}

// updateAlenAmax mirrors update_alen_amax in perm-test.c: it appends a
// region (real length regLen starting at real position regBeg0) to the
// artificial coordinate space, and the first time an L-bp call starting at
// the region's last position would run past the real chromosome end, it
// fixes AMax.
func (b *builder) updateAlenAmax(regLen, regBeg0 uint64) {
	chr := b.chr
	if !b.amaxSet && uint64(chr.Len) < regBeg0+regLen+b.callLen-1 {
		if uint64(chr.Len) >= regBeg0+b.callLen {
			chr.AMax = chr.ALen + uint64(chr.Len) - b.callLen - regBeg0
		} else {
			chr.AMax = chr.ALen - 1
		}
		b.amaxSet = true
	}
	chr.ALen += regLen
}
