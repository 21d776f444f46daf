// Package ioregion parses the engine's text input formats: the
// chromosome-length ("fai") file and the whitespace-separated region
// files (background, target, labeled targets, calls).
//
// Grounded on grailbio-bio/interval/bedunion.go's NewBEDUnionFromPath /
// fileio.DetermineType pattern for transparent .bed/.bed.gz/.bed.bgz
// detection and decompression, and on brahma.go's buffered-scanner CLI
// I/O idiom. Parse failures are wrapped with github.com/pkg/errors, the
// way grailbio-bio wraps os.Open/scan failures throughout markduplicates
// and pileup.
package ioregion

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// MaxCoord is the coordinate overflow bound: a 0-based inclusive end
// coordinate at or beyond this is treated as overflow, fixed at 32-bit
// width.
const MaxCoord = 1<<31 - 1

// ChrLen is one record of a chromosome-length ("fai") file.
type ChrLen struct {
	Name string
	Len  uint32
}

// RawRegion is one parsed line of a region file, in 0-based inclusive
// [Beg, End] real coordinates (already converted from whatever the
// source file's convention was). Label is empty unless the file carries
// a fourth column.
type RawRegion struct {
	Chr      string
	Beg, End uint32
	Label    string
}

// openMaybeCompressed opens path, transparently wrapping it in a gzip
// reader when the name ends in .gz or .bgz (bgzip is a valid gzip
// stream), following bedunion.go's detection-by-extension approach.
func openMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".bgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "could not decompress %q", path)
		}
		return &gzipCloser{gz: gz, f: f}, nil
	}
	return f, nil
}

type gzipCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// isBED reports whether path's coordinates should be read as 0-based
// half-open (converted internally to 0-based inclusive by decrementing
// End).
func isBED(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".bed") ||
		strings.HasSuffix(lower, ".bed.gz") ||
		strings.HasSuffix(lower, ".bed.bgz")
}

// ReadChrLens parses a chromosome-length file: whitespace-separated
// "name length" per line, additional fields ignored.
func ReadChrLens(path string) ([]ChrLen, error) {
	rc, err := openMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []ChrLen
	sc := bufio.NewScanner(rc)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, errors.Errorf("%s:%d: expected at least 2 fields, got %d", path, lineNo, len(fields))
		}
		length, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: invalid length %q", path, lineNo, fields[1])
		}
		out = append(out, ChrLen{Name: fields[0], Len: uint32(length)})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: read error", path)
	}
	return out, nil
}

// ReadRegions parses a region file: whitespace-separated "chr beg end
// [label]" per line. Coordinates are 1-based inclusive unless path looks
// like a BED file, in which case they are 0-based half-open and are
// converted to the engine's canonical 0-based inclusive representation.
// A beg > end is treated as a "start > end" heuristic swap: the two are
// swapped and one warning is printed to warn.
func ReadRegions(path string, warn io.Writer) ([]RawRegion, error) {
	rc, err := openMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bed := isBED(path)
	warned := false

	var out []RawRegion
	sc := bufio.NewScanner(rc)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, errors.Errorf("%s:%d: expected at least 3 fields, got %d", path, lineNo, len(fields))
		}
		beg, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: invalid beg %q", path, lineNo, fields[1])
		}
		end, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: invalid end %q", path, lineNo, fields[2])
		}

		if bed {
			// 0-based half-open [beg,end) -> 0-based inclusive [beg,end-1]
			if end == 0 {
				return nil, errors.Errorf("%s:%d: zero-length BED interval", path, lineNo)
			}
			end--
		} else {
			// 1-based inclusive -> 0-based inclusive
			if beg == 0 {
				return nil, errors.Errorf("%s:%d: 1-based coordinate cannot be 0", path, lineNo)
			}
			beg--
			end--
		}

		if beg > end {
			if !warned && warn != nil {
				warn.Write([]byte("Warning: start > end, swapping coordinates\n"))
				warned = true
			}
			beg, end = end, beg
		}
		if end >= MaxCoord {
			return nil, errors.Errorf("%s:%d: coordinate overflow: end=%d >= %d", path, lineNo, end, uint64(MaxCoord))
		}

		r := RawRegion{Chr: fields[0], Beg: uint32(beg), End: uint32(end)}
		if len(fields) >= 4 {
			r.Label = fields[3]
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: read error", path)
	}
	return out, nil
}
