// Command dist is a standalone smoke-test utility for internal/distbin:
// it reads whitespace-separated non-negative integers from stdin and
// prints the resulting log-bin distribution, mirroring
// original_source/dist/dist.c.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/pd3/utils/internal/distbin"
)

const version = "dist (pd3/utils), prototype"

func main() {
	nprecise := flag.Int("nprecise", 4, "number of orders of magnitude to represent exactly")
	printVersion := flag.Bool("version", false, "print version string and exit")
	help := flag.Bool("help", false, "print this usage message")
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *printVersion {
		fmt.Println(version)
		return
	}

	d := distbin.New(*nprecise)

	sc := bufio.NewScanner(os.Stdin)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		var v uint64
		if _, err := fmt.Sscanf(sc.Text(), "%d", &v); err != nil {
			continue
		}
		d.Insert(v)
	}

	fmt.Println("#[beg\tend)\tcount\tdensity")
	for i := 0; i < d.Len(); i++ {
		beg, end, count := d.Get(i)
		if count == 0 {
			continue
		}
		fmt.Printf("%d\t%d\t%d\t%f\n", beg, end, count, float64(count)/float64(end-beg))
	}
}
