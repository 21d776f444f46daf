// Package permtest implements the enrichment permutation driver,
// grounded on run_test and the round loop in main() of
// original_source/perm-test/perm-test.c: repeatedly place each call at
// random on the accessible genome and compare the simulated target-hit
// rate against the one observed in the real data.
package permtest

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pd3/utils/internal/achrom"
	"github.com/pd3/utils/internal/distbin"
	"github.com/pd3/utils/internal/region"
	"github.com/pd3/utils/internal/sampler"
)

// Options controls the enrichment driver's behaviour, mirroring
// perm-test's CLI flags.
type Options struct {
	MaxCallLen      uint64
	HitNoBg         bool
	PrintPlacements bool
	NPrecise        int

	// OnPlacement, when non-nil, is called once per simulated placement
	// with the real coordinates it translates to and whether it counted
	// as a target hit.
	OnPlacement func(chr string, beg, end uint32, hit bool)
}

// CallInput is one line of the calls file: a real genomic interval whose
// length participates in simulation once its observed overlap has been
// classified.
type CallInput struct {
	Chr      string
	Beg, End uint32 // 0-based inclusive
}

// Driver owns the per-chromosome spliced state, the filtered call
// lengths, and the observed-hit count computed from the real calls.
type Driver struct {
	opts Options

	chrs    []*region.Chr
	byName  map[string]*region.Chr
	samp    sampler.Sampler

	// CallLens holds the surviving call lengths, sorted ascending so the
	// artificial chromosome for a given length is reused across
	// identical lengths within a round.
	CallLens []uint64

	NUsed          int
	NSkipped       int
	NObsTargetHits int
}

// NewDriver builds a Driver from spliced chromosomes and raw calls,
// performing the accessibility pre-filter and observed-hit computation.
// chrs must already have Regs populated by package splice.
func NewDriver(chrs []*region.Chr, calls []CallInput, opts Options) (*Driver, error) {
	d := &Driver{opts: opts, chrs: chrs, byName: make(map[string]*region.Chr, len(chrs))}
	lens := make([]uint64, len(chrs))
	for i, c := range chrs {
		d.byName[c.Name] = c
		lens[i] = uint64(c.Len)
		// Accessibility and observed-hit classification always needs the
		// background index regardless of --no-bg-overlap.
		if err := region.BuildRealIndexes(c, true); err != nil {
			return nil, err
		}
	}
	d.samp = sampler.New(chrs, lens)

	var callLens []uint64
	for _, call := range calls {
		chr, ok := d.byName[call.Chr]
		if !ok {
			d.NSkipped++
			continue
		}
		length := uint64(call.End) - uint64(call.Beg) + 1
		if opts.MaxCallLen > 0 && length > opts.MaxCallLen {
			d.NSkipped++
			continue
		}
		tgtHit := region.Overlaps(chr.RealTgtIdx, int(call.Beg), int(call.End)+1)
		bgHit := region.Overlaps(chr.RealBgIdx, int(call.Beg), int(call.End)+1)
		if !tgtHit && !bgHit {
			d.NSkipped++
			continue
		}
		d.NUsed++
		callLens = append(callLens, length)
		if tgtHit && !(opts.HitNoBg && bgHit) {
			d.NObsTargetHits++
		}
	}
	sort.Slice(callLens, func(i, j int) bool { return callLens[i] < callLens[j] })
	d.CallLens = callLens
	return d, nil
}

// Result is the full outcome of an enrichment run.
type Result struct {
	NTotal   int
	NExc     int
	NFew     int
	MeanSim  float64
	StdSim   float64
	Dist     *distbin.Dist
}

// Run executes nTotal iterations split into ceil(nTotal/nBatch) rounds.
func (d *Driver) Run(rng *rand.Rand, nTotal, nBatch int) *Result {
	res := &Result{NTotal: nTotal, Dist: distbin.New(d.opts.NPrecise)}
	if nBatch <= 0 {
		nBatch = nTotal
	}
	if nBatch <= 0 {
		return res
	}

	hits := make([]int, nBatch)
	var roundMeans, roundStds []float64
	remaining := nTotal

	for remaining > 0 {
		n := nBatch
		if n > remaining {
			n = remaining
		}
		for i := 0; i < n; i++ {
			hits[i] = 0
		}

		for _, L := range d.CallLens {
			for i := 0; i < n; i++ {
				if d.placementHit(rng, L) {
					hits[i]++
				}
			}
		}

		for i := 0; i < n; i++ {
			h := hits[i]
			if h >= d.NObsTargetHits {
				res.NExc++
			}
			if h <= d.NObsTargetHits {
				res.NFew++
			}
			d.incDist(res.Dist, h)
		}

		fh := make([]float64, n)
		for i := 0; i < n; i++ {
			fh[i] = float64(hits[i])
		}
		mean, std := stat.MeanStdDev(fh, nil)
		roundMeans = append(roundMeans, mean)
		roundStds = append(roundStds, std)

		remaining -= n
	}

	// The overall mean/stddev is an average across per-round estimates
	// rather than a proper pooled computation over every iteration.
	res.MeanSim, _ = stat.MeanStdDev(roundMeans, nil)
	res.StdSim, _ = stat.MeanStdDev(roundStds, nil)

	return res
}

// EnrichmentPValue returns the enrichment p-value and whether it is the
// "<1/n_total" upper bound reported when n_exc is zero.
func (r *Result) EnrichmentPValue() (pval float64, isBound bool) {
	if r.NExc == 0 {
		return 1 / float64(r.NTotal), true
	}
	return float64(r.NExc) / float64(r.NTotal), false
}

// DepletionPValue is EnrichmentPValue's analogue for n_few.
func (r *Result) DepletionPValue() (pval float64, isBound bool) {
	if r.NFew == 0 {
		return 1 / float64(r.NTotal), true
	}
	return float64(r.NFew) / float64(r.NTotal), false
}

func (d *Driver) incDist(dist *distbin.Dist, h int) {
	if h < 0 {
		h = 0
	}
	dist.Insert(uint64(h))
}

// placementHit samples one chromosome and one placement for call length
// L and reports whether it hits a target.
func (d *Driver) placementHit(rng *rand.Rand, L uint64) bool {
	chr := d.samp.Sample(rng)
	if chr == nil {
		return false
	}
	if uint64(chr.Len) <= L {
		hit := region.Overlaps(chr.RealTgtIdx, 0, int(chr.Len))
		if hit && d.opts.HitNoBg && region.Overlaps(chr.RealBgIdx, 0, int(chr.Len)) {
			hit = false
		}
		if d.opts.OnPlacement != nil && chr.Len > 0 {
			d.opts.OnPlacement(chr.Name, 0, chr.Len-1, hit)
		}
		return hit
	}

	if chr.CallLen != L {
		needBg := d.opts.HitNoBg || d.opts.PrintPlacements
		if err := achrom.Build(chr, L, achrom.Options{NeedBgIdx: needBg}); err != nil {
			return false
		}
	}
	if chr.ALen == 0 {
		return false
	}
	p := rng.Int63n(int64(chr.AMax) + 1)
	lo, hi := int(p), int(p)+int(L)
	hit := region.Overlaps(chr.TgtIdx, lo, hi)
	if hit && d.opts.HitNoBg && region.Overlaps(chr.BgIdx, lo, hi) {
		hit = false
	}
	if d.opts.OnPlacement != nil {
		if realBeg, ok := chr.Translate(uint64(p)); ok {
			d.opts.OnPlacement(chr.Name, realBeg, realBeg+uint32(L)-1, hit)
		}
	}
	return hit
}
