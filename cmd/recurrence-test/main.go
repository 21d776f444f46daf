// Command recurrence-test is the per-label recurrence permutation-test
// CLI: it tests whether observed calls hit labeled target regions (e.g.
// genes) more often than expected under random, retried-until-accessible
// placement.
//
// Flag names and output records follow recurrence-test.c.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pd3/utils/internal/ioregion"
	"github.com/pd3/utils/internal/recurrence"
	"github.com/pd3/utils/internal/rng"
)

const version = "recurrence-test (pd3/utils), prototype"

func main() {
	accPath := flag.String("accessible-regs", "", "accessible (background) regions file")
	callsPath := flag.String("calls", "", "calls file")
	labeledPath := flag.String("labeled-regs", "", "labeled target regions file")
	faiPath := flag.String("ref-fai", "", "chromosome length file")
	niterFlag := flag.Int("niter", 1000000, "number of iterations")
	maxCallLen := flag.Uint64("max-call-length", 0, "skip calls longer than this (0 = no limit)")
	seed := flag.Int64("random-seed", -1, "PRNG seed (-1 uses the system clock)")
	outPath := flag.String("output", "", "output file (defaults to stdout)")
	debugRegions := flag.Bool("debug-regions", false, "print the accessible and labeled region lists and exit")
	help := flag.Bool("help", false, "print this usage message")
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *accPath == "" || *callsPath == "" || *labeledPath == "" || *faiPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --accessible-regs, --calls, --labeled-regs and --ref-fai are all required.")
		os.Exit(1)
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

	chrLensList, err := ioregion.ReadChrLens(*faiPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	chrLens := make(map[string]uint32, len(chrLensList))
	for _, c := range chrLensList {
		chrLens[c.Name] = c.Len
	}

	accRaw, err := ioregion.ReadRegions(*accPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	labeledRaw, err := ioregion.ReadRegions(*labeledPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	callsRaw, err := ioregion.ReadRegions(*callsPath, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var bg []recurrence.BgRegion
	skipped := 0
	for _, r := range accRaw {
		if _, ok := chrLens[r.Chr]; !ok {
			skipped++
			continue
		}
		bg = append(bg, recurrence.BgRegion{Chr: r.Chr, Beg: r.Beg, End: r.End})
	}
	var tgt []recurrence.LabeledRegion
	for _, r := range labeledRaw {
		if _, ok := chrLens[r.Chr]; !ok {
			skipped++
			continue
		}
		if r.Label == "" {
			log.Fatalf("%s: labeled target region on %s:%d-%d is missing its label column", *labeledPath, r.Chr, r.Beg+1, r.End+1)
		}
		tgt = append(tgt, recurrence.LabeledRegion{Chr: r.Chr, Beg: r.Beg, End: r.End, Label: r.Label})
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d regions named a sequence missing from %s, skipped.\n", skipped, *faiPath)
	}

	var calls []recurrence.CallInput
	for _, r := range callsRaw {
		calls = append(calls, recurrence.CallInput{Chr: r.Chr, Beg: r.Beg, End: r.End})
	}

	if *debugRegions {
		for _, r := range bg {
			fmt.Fprintf(out, "BG\t%s\t%d\t%d\n", r.Chr, r.Beg+1, r.End+1)
		}
		for _, r := range tgt {
			fmt.Fprintf(out, "TGT\t%s\t%d\t%d\t%s\n", r.Chr, r.Beg+1, r.End+1, r.Label)
		}
		return
	}

	driver, err := recurrence.NewDriver(chrLens, bg, tgt, calls, recurrence.Options{MaxCallLen: *maxCallLen})
	if err != nil {
		log.Fatalf("%v", err)
	}
	if driver.NUsed == 0 {
		log.Fatalf("no call intersects any accessible or target region after filtering")
	}

	r, seedUsed := rng.New(*seed)

	fmt.Fprintf(out, "VERSION\t%s\n", version)
	fmt.Fprintf(out, "CMD\t%s\n", strings.Join(os.Args, " "))
	fmt.Fprintf(out, "SEED\t%d\n", seedUsed)
	fmt.Fprintf(out, "NCALLS\t%d\t%d\n", driver.NUsed, driver.NSkipped)

	res, err := driver.Run(r, *niterFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for i, label := range driver.Labels {
		fmt.Fprintf(out, "TEST\t%s\t%d\t%d\t%d\t%d\n", label, res.NObs[i], res.NFew[i], res.NEq[i], res.NExc[i])
	}
	for i, label := range driver.Labels {
		counts := make([]string, len(res.Dist[i]))
		for j, c := range res.Dist[i] {
			counts[j] = strconv.Itoa(c)
		}
		fmt.Fprintf(out, "DIST\t%s\t%s\n", label, strings.Join(counts, "\t"))
	}
}
