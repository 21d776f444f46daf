// Package recurrence implements the per-label recurrence driver,
// grounded on run_test in original_source/perm-test/recurrence-test.c:
// unlike the enrichment
// driver it samples placements in real coordinates (per-label
// attribution needs a link back to the specific label-carrying target
// interval) and retries inaccessible placements instead of building an
// artificial chromosome.
package recurrence

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/biogo/store/interval"

	"github.com/pd3/utils/internal/region"
	"github.com/pd3/utils/internal/sampler"
	"github.com/pd3/utils/internal/splice"
)

// BgRegion and LabeledRegion are the two kinds of input region for this
// driver: plain accessible background and label-tagged targets.
type BgRegion struct {
	Chr      string
	Beg, End uint32
}

type LabeledRegion struct {
	Chr      string
	Beg, End uint32
	Label    string
}

// CallInput is one call from the calls file, in real coordinates.
type CallInput struct {
	Chr      string
	Beg, End uint32
}

// ErrExhausted is returned when a call cannot find an accessible
// placement within NTry attempts.
type ErrExhausted struct {
	CallLen uint64
	NTry    int
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("recurrence: exhausted %d accessibility retries for a call of length %d; accessible_len is likely near zero or the input is malformed", e.NTry, e.CallLen)
}

type chrState struct {
	name string
	len  uint32

	// accIdx indexes the disjoint background-union-target accessible
	// span, used only to test whether a placement is accessible at all.
	accIdx *interval.IntTree
	// tgtIdx indexes raw, possibly-overlapping labeled target regions
	// with the label index as payload, used for per-label attribution.
	tgtIdx *interval.IntTree
}

// Driver owns the per-chromosome indices, label table, observed counts
// and retry budget for the recurrence test.
type Driver struct {
	opts Options

	chrs    []*chrState
	byName  map[string]*chrState
	samp    sampler.Sampler
	sampIdx map[*region.Chr]*chrState

	Labels  []string
	labelOf map[string]int

	// CallLens holds the surviving call lengths (one entry per used
	// call, in input order — no artificial-chromosome reuse requires
	// sorting here).
	CallLens []uint64

	NObs     []int // per label, observed hit count from the real calls
	NUsed    int
	NSkipped int

	NTry int
}

// Options controls the recurrence driver.
type Options struct {
	MaxCallLen uint64
}

// NewDriver builds a Driver from chromosome lengths, background and
// labeled-target regions, and calls, performing the accessibility
// splice, per-label observed-hit computation, and NTry derivation.
func NewDriver(chrLens map[string]uint32, bg []BgRegion, tgt []LabeledRegion, calls []CallInput, opts Options) (*Driver, error) {
	d := &Driver{opts: opts, byName: make(map[string]*chrState), labelOf: make(map[string]int)}

	bgByChr := map[string][]splice.Raw{}
	for _, r := range bg {
		bgByChr[r.Chr] = append(bgByChr[r.Chr], splice.Raw{Beg: r.Beg, End: r.End})
	}
	tgtByChr := map[string][]splice.Raw{}
	labeledByChr := map[string][]LabeledRegion{}
	for _, r := range tgt {
		tgtByChr[r.Chr] = append(tgtByChr[r.Chr], splice.Raw{Beg: r.Beg, End: r.End})
		labeledByChr[r.Chr] = append(labeledByChr[r.Chr], r)
		if _, ok := d.labelOf[r.Label]; !ok {
			d.labelOf[r.Label] = len(d.Labels)
			d.Labels = append(d.Labels, r.Label)
		}
	}

	var genomeLen, accessibleLen uint64
	var lens []uint64
	names := make([]string, 0, len(chrLens))
	for name := range chrLens {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		length := chrLens[name]
		spliced := splice.Splice(bgByChr[name], tgtByChr[name])

		var accEntries []*region.Entry
		var id uintptr
		for _, r := range spliced {
			accEntries = append(accEntries, region.NewEntry(id, int(r.Beg), int(r.Beg)+int(r.Len), 0))
			id++
			accessibleLen += uint64(r.Len)
		}
		accIdx, err := region.NewIndex(accEntries)
		if err != nil {
			return nil, err
		}

		var tgtEntries []*region.Entry
		for _, r := range labeledByChr[name] {
			tgtEntries = append(tgtEntries, region.NewEntry(id, int(r.Beg), int(r.End)+1, d.labelOf[r.Label]))
			id++
		}
		tgtIdx, err := region.NewIndex(tgtEntries)
		if err != nil {
			return nil, err
		}

		cs := &chrState{name: name, len: length, accIdx: accIdx, tgtIdx: tgtIdx}
		d.chrs = append(d.chrs, cs)
		d.byName[name] = cs
		genomeLen += uint64(length)
		lens = append(lens, uint64(length))
	}

	regionChrs := make([]*region.Chr, len(d.chrs))
	for i, cs := range d.chrs {
		regionChrs[i] = &region.Chr{Name: cs.name, Len: cs.len}
	}
	d.samp = sampler.New(regionChrs, lens)
	d.sampIdx = make(map[*region.Chr]*chrState, len(d.chrs))
	for i, cs := range d.chrs {
		d.sampIdx[regionChrs[i]] = cs
	}

	if accessibleLen == 0 {
		d.NTry = 1
	} else {
		d.NTry = int(10 * genomeLen / accessibleLen)
		if d.NTry < 1 {
			d.NTry = 1
		}
	}

	d.NObs = make([]int, len(d.Labels))
	for _, call := range calls {
		cs, ok := d.byName[call.Chr]
		if !ok {
			d.NSkipped++
			continue
		}
		length := uint64(call.End) - uint64(call.Beg) + 1
		if opts.MaxCallLen > 0 && length > opts.MaxCallLen {
			d.NSkipped++
			continue
		}
		accessible := region.Overlaps(cs.accIdx, int(call.Beg), int(call.End)+1)
		if !accessible {
			d.NSkipped++
			continue
		}
		d.NUsed++
		d.CallLens = append(d.CallLens, length)

		hit := map[int]bool{}
		region.AllMatches(cs.tgtIdx, int(call.Beg), int(call.End)+1, func(payload int) { hit[payload] = true })
		for label := range hit {
			d.NObs[label]++
		}
	}

	return d, nil
}

// Result is the outcome of a recurrence run: per-label test counters and
// a (labels x (nCalls+1)) distribution.
type Result struct {
	NObs []int
	NEq  []int
	NExc []int
	NFew []int
	Dist [][]int // Dist[label][k] = iterations where the label was hit exactly k times
}

// Run executes nIter simulated iterations and tallies, per label, how
// often the simulated hit count exceeds (NExc), falls below (NFew), or
// exactly equals (NEq) the observed hit count; each iteration increments
// exactly one of the three.
func (d *Driver) Run(rng *rand.Rand, nIter int) (*Result, error) {
	nLabels := len(d.Labels)
	res := &Result{
		NObs: append([]int(nil), d.NObs...),
		NEq:  make([]int, nLabels),
		NExc: make([]int, nLabels),
		NFew: make([]int, nLabels),
		Dist: make([][]int, nLabels),
	}
	for l := range res.Dist {
		res.Dist[l] = make([]int, len(d.CallLens)+1)
	}

	for iter := 0; iter < nIter; iter++ {
		hitCount := make([]int, nLabels)
		for _, L := range d.CallLens {
			hits, err := d.placeOneCall(rng, L)
			if err != nil {
				return nil, err
			}
			for label := range hits {
				hitCount[label]++
			}
		}
		for l := 0; l < nLabels; l++ {
			h := hitCount[l]
			switch {
			case h == d.NObs[l]:
				res.NEq[l]++
			case h > d.NObs[l]:
				res.NExc[l]++
			default:
				res.NFew[l]++
			}
			if h >= 0 && h < len(res.Dist[l]) {
				res.Dist[l][h]++
			}
		}
	}
	return res, nil
}

// placeOneCall samples chromosomes and positions until it finds an
// accessible placement for a call of length L, returning the set of
// label indices its interval overlaps.
func (d *Driver) placeOneCall(rng *rand.Rand, L uint64) (map[int]bool, error) {
	for try := 0; try < d.NTry; try++ {
		sampled := d.samp.Sample(rng)
		cs := d.sampIdx[sampled]
		if cs == nil || uint64(cs.len) < L {
			continue
		}
		span := uint64(cs.len) - L
		var p uint64
		if span > 0 {
			p = uint64(rng.Int63n(int64(span) + 1))
		}
		lo, hi := int(p), int(p+L)
		if !region.Overlaps(cs.accIdx, lo, hi) {
			continue
		}
		hits := map[int]bool{}
		region.AllMatches(cs.tgtIdx, lo, hi, func(payload int) { hits[payload] = true })
		return hits, nil
	}
	return nil, &ErrExhausted{CallLen: L, NTry: d.NTry}
}
