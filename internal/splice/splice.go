// Package splice merges a chromosome's background and target intervals
// into one
// canonical, disjoint, tagged sequence, with target regions taking
// precedence over background where they intersect.
//
// The algorithm is a direct translation of merge_and_splice_regions and
// its PUSH_REGION macro in original_source/perm-test/perm-test.c, adapted
// to operate on sorted Go slices instead of repeated regidx_overlap
// queries against an htslib region index.
package splice

import (
	"sort"

	"github.com/pd3/utils/internal/region"
)

// Raw is a single input interval, 0-based inclusive [Beg, End].
type Raw struct {
	Beg, End uint32
}

func sortedCopy(in []Raw) []Raw {
	out := make([]Raw, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Beg != out[j].Beg {
			return out[i].Beg < out[j].Beg
		}
		return out[i].End < out[j].End
	})
	return out
}

// Splice merges bg and tgt, each possibly overlapping internally or with
// each other and given in arbitrary order, into the canonical spliced
// sequence for one chromosome.
func Splice(bg, tgt []Raw) []region.Reg {
	b := sortedCopy(bg)
	t := sortedCopy(tgt)

	var out []region.Reg
	var repEnd1 uint32
	tIdx := 0

	// push mirrors PUSH_REGION: clip beg to the watermark, emit if
	// anything remains, and advance the watermark.
	push := func(beg, end uint32, isTarget bool) {
		if repEnd1 != 0 && beg < repEnd1 {
			beg = repEnd1
		}
		if beg > end {
			return
		}
		out = append(out, region.Reg{Beg: beg, Len: end - beg + 1, IsTarget: isTarget})
		if repEnd1 < end+1 {
			repEnd1 = end + 1
		}
	}
	// advanceTo permanently skips targets that can never again overlap a
	// query starting at lo or later, since the watermark only grows.
	advanceTo := func(lo uint32) {
		for tIdx < len(t) && t[tIdx].End < lo {
			tIdx++
		}
	}

	for _, r := range b {
		bgBeg, bgEnd := r.Beg, r.End
		if repEnd1 != 0 && repEnd1-1 >= bgBeg {
			bgBeg = repEnd1
		}

		// Targets that start in the gap between the previously reported
		// region and this background region take precedence.
		if repEnd1 < bgBeg {
			advanceTo(repEnd1)
			for j := tIdx; j < len(t) && t[j].Beg <= bgBeg-1; j++ {
				if t[j].End < repEnd1 {
					continue
				}
				push(t[j].Beg, t[j].End, true)
			}
			if repEnd1 != 0 && repEnd1-1 >= bgBeg {
				bgBeg = repEnd1
			}
		}
		if bgBeg > bgEnd {
			continue // fully overwritten by target regions
		}

		// Targets overlapping what remains of this background region.
		advanceTo(bgBeg)
		for bgBeg <= bgEnd {
			found := false
			for j := tIdx; j < len(t) && t[j].Beg <= bgEnd; j++ {
				if t[j].End < bgBeg {
					continue
				}
				if t[j].Beg > bgBeg {
					push(bgBeg, t[j].Beg-1, false)
				}
				push(t[j].Beg, t[j].End, true)
				bgBeg = repEnd1
				found = true
				break
			}
			if !found {
				break
			}
			advanceTo(bgBeg)
		}
		push(bgBeg, bgEnd, false)
	}

	// Flush targets starting at or after the final watermark.
	advanceTo(repEnd1)
	for j := tIdx; j < len(t); j++ {
		push(t[j].Beg, t[j].End, true)
	}

	return mergeAdjacent(out)
}

// mergeAdjacent collapses consecutive same-tag regions whose closures
// touch or overlap into a single region.
func mergeAdjacent(regs []region.Reg) []region.Reg {
	if len(regs) == 0 {
		return regs
	}
	out := regs[:1]
	for _, r := range regs[1:] {
		last := &out[len(out)-1]
		if last.IsTarget == r.IsTarget && last.Beg+last.Len >= r.Beg {
			if end := r.Beg + r.Len; end > last.Beg+last.Len {
				last.Len = end - last.Beg
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
