// Command perm-test is the enrichment permutation-test CLI: it tests
// whether observed calls overlap target regions more (or less) often
// than expected under random placement on the accessible genome.
//
// Flag names and output records follow perm-test.c.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pd3/utils/internal/ioregion"
	"github.com/pd3/utils/internal/permtest"
	"github.com/pd3/utils/internal/region"
	"github.com/pd3/utils/internal/rng"
	"github.com/pd3/utils/internal/sampler"
	"github.com/pd3/utils/internal/splice"
)

const version = "perm-test (pd3/utils), prototype"

func main() {
	bgPath := flag.String("background-regs", "", "background regions file")
	callsPath := flag.String("calls", "", "calls file")
	tgtPath := flag.String("target-regs", "", "target regions file")
	faiPath := flag.String("ref-fai", "", "chromosome length file")
	niter := flag.String("niter", "1000000", "N[,BATCH] total iterations and optional batch size")
	maxCallLen := flag.Uint64("max-call-length", 0, "skip calls longer than this (0 = no limit)")
	seed := flag.Int64("random-seed", -1, "PRNG seed (-1 uses the system clock)")
	noBgOverlap := flag.Bool("no-bg-overlap", false, "a hit only counts if the placement does not also overlap background")
	printPlacements := flag.Bool("print-placements", false, "print every random placement")
	nprecise := flag.Int("nprecise-dist", 3, "exact low-end digits kept by the log-bin distribution")
	outPath := flag.String("output", "", "output file (defaults to stdout)")
	debugRegions := flag.Bool("debug-regions", false, "print the spliced region list and exit")
	help := flag.Bool("help", false, "print this usage message")
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *bgPath == "" || *callsPath == "" || *tgtPath == "" || *faiPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --background-regs, --calls, --target-regs and --ref-fai are all required.")
		os.Exit(1)
	}

	nTotal, nBatch, err := parseNIter(*niter)
	if err != nil {
		log.Fatalf("could not parse --niter %q: %v", *niter, err)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("could not create %q: %v", *outPath, err)
		}
		defer f.Close()
		out = f
	}

	chrLens, err := ioregion.ReadChrLens(*faiPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	bgRaw, err := ioregion.ReadRegions(*bgPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	tgtRaw, err := ioregion.ReadRegions(*tgtPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	callsRaw, err := ioregion.ReadRegions(*callsPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	chrs, skippedRefs := buildChromosomes(chrLens, bgRaw, tgtRaw)
	if skippedRefs > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d regions named a sequence missing from %s, skipped.\n", skippedRefs, *faiPath)
	}

	if *debugRegions {
		printDebugRegions(out, chrs)
		return
	}

	calls := make([]permtest.CallInput, 0, len(callsRaw))
	for _, c := range callsRaw {
		calls = append(calls, permtest.CallInput{Chr: c.Chr, Beg: c.Beg, End: c.End})
	}

	opts := permtest.Options{
		MaxCallLen:      *maxCallLen,
		HitNoBg:         *noBgOverlap,
		PrintPlacements: *printPlacements,
		NPrecise:        *nprecise,
	}
	if *printPlacements {
		opts.OnPlacement = func(chr string, beg, end uint32, hit bool) {
			h := 0
			if hit {
				h = 1
			}
			fmt.Fprintf(out, "POS\t%s\t%d\t%d\t%d\n", chr, beg+1, end+1, h)
		}
	}
	driver, err := permtest.NewDriver(chrs, calls, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if driver.NUsed == 0 {
		log.Fatalf("no call intersects any background or target region after filtering")
	}

	r, seedUsed := rng.New(*seed)

	regionChrs := make([]*region.Chr, len(chrs))
	copy(regionChrs, chrs)
	lens := make([]uint64, len(chrs))
	for i, c := range chrs {
		lens[i] = uint64(c.Len)
	}
	s := sampler.New(regionChrs, lens)

	fmt.Fprintf(out, "VERSION\t%s\n", version)
	fmt.Fprintf(out, "CMD\t%s\n", strings.Join(os.Args, " "))
	fmt.Fprintf(out, "SEED\t%d\n", seedUsed)
	fmt.Fprintf(out, "NITER_ROUNDS\t%d\t%d\n", nBatch, roundsOf(nTotal, nBatch))
	fmt.Fprintf(out, "NCALLS\t%d\t%d\n", driver.NUsed, driver.NSkipped)
	if e := s.MaxDiscretisationError(); e > 0 {
		fmt.Fprintf(out, "MSG\tMaximum chromosome randomization error due to length discretization: %.1e%%\n", e*100)
	}

	res := driver.Run(r, nTotal, nBatch)

	enrPval, enrBound := res.EnrichmentPValue()
	dplPval, dplBound := res.DepletionPValue()
	fmt.Fprintf(out, "TEST_ENR\t%d\t%d\t%s\n", res.NTotal, res.NExc, fmtPval(enrPval, enrBound))
	fmt.Fprintf(out, "TEST_DPL\t%d\t%d\t%s\n", res.NTotal, res.NFew, fmtPval(dplPval, dplBound))
	fmt.Fprintf(out, "TEST_FOLD\t%d\t%.4f\t%.4f\n", driver.NObsTargetHits, res.MeanSim, res.StdSim)
	for i := 0; i < res.Dist.Len(); i++ {
		beg, end, count := res.Dist.Get(i)
		density := float64(count) / float64(end-beg)
		fmt.Fprintf(out, "DIST\t%d\t%d\t%d\t%g\n", beg, end, count, density)
	}
}

func fmtPval(v float64, bound bool) string {
	if bound {
		return "<" + strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func roundsOf(nTotal, nBatch int) int {
	if nBatch <= 0 {
		return 1
	}
	return (nTotal + nBatch - 1) / nBatch
}

func parseNIter(s string) (nTotal, nBatch int, err error) {
	parts := strings.SplitN(s, ",", 2)
	nTotal, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 2 {
		nBatch, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, err
		}
		return nTotal, nBatch, nil
	}
	return nTotal, nTotal, nil
}

// buildChromosomes splices background and target regions per chromosome
// named in chrLens, returning chromosomes in the input order and a count
// of regions naming a sequence absent from chrLens.
func buildChromosomes(chrLens []ioregion.ChrLen, bg, tgt []ioregion.RawRegion) ([]*region.Chr, int) {
	order := make([]string, 0, len(chrLens))
	lenOf := make(map[string]uint32, len(chrLens))
	for _, c := range chrLens {
		order = append(order, c.Name)
		lenOf[c.Name] = c.Len
	}

	bgByChr := map[string][]splice.Raw{}
	tgtByChr := map[string][]splice.Raw{}
	skipped := 0
	for _, r := range bg {
		if _, ok := lenOf[r.Chr]; !ok {
			skipped++
			continue
		}
		bgByChr[r.Chr] = append(bgByChr[r.Chr], splice.Raw{Beg: r.Beg, End: r.End})
	}
	for _, r := range tgt {
		if _, ok := lenOf[r.Chr]; !ok {
			skipped++
			continue
		}
		tgtByChr[r.Chr] = append(tgtByChr[r.Chr], splice.Raw{Beg: r.Beg, End: r.End})
	}

	chrs := make([]*region.Chr, 0, len(order))
	for _, name := range order {
		regs := splice.Splice(bgByChr[name], tgtByChr[name])
		chrs = append(chrs, &region.Chr{Name: name, Len: lenOf[name], Regs: regs})
	}
	return chrs, skipped
}

func printDebugRegions(out *os.File, chrs []*region.Chr) {
	for _, c := range chrs {
		for _, r := range c.Regs {
			tag := "BG"
			if r.IsTarget {
				tag = "TGT"
			}
			fmt.Fprintf(out, "%s\t%s\t%d\t%d\n", tag, c.Name, r.Beg+1, r.End()+1)
		}
	}
}

