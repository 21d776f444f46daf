package ioregion

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadChrLens(t *testing.T) {
	path := writeTemp(t, "ref.fai", "chr1\t1000\textra\nchr2 2000\n\n# comment\n")
	got, err := ReadChrLens(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ChrLen{Name: "chr1", Len: 1000}, got[0])
	assert.Equal(t, ChrLen{Name: "chr2", Len: 2000}, got[1])
}

func TestReadRegionsOneBased(t *testing.T) {
	path := writeTemp(t, "regs.txt", "chr1\t101\t200\nchr1\t1\t10\tlabelA\n")
	got, err := ReadRegions(path, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, RawRegion{Chr: "chr1", Beg: 100, End: 199}, got[0])
	assert.Equal(t, RawRegion{Chr: "chr1", Beg: 0, End: 9, Label: "labelA"}, got[1])
}

func TestReadRegionsBEDIsZeroBasedHalfOpen(t *testing.T) {
	path := writeTemp(t, "regs.bed", "chr1\t100\t200\n")
	got, err := ReadRegions(path, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RawRegion{Chr: "chr1", Beg: 100, End: 199}, got[0])
}

func TestReadRegionsSwapsStartGreaterThanEnd(t *testing.T) {
	path := writeTemp(t, "regs.txt", "chr1\t200\t100\n")
	var warn bytes.Buffer
	got, err := ReadRegions(path, &warn)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RawRegion{Chr: "chr1", Beg: 99, End: 199}, got[0])
	assert.Contains(t, warn.String(), "start > end")
}

func TestReadRegionsRejectsMalformedLine(t *testing.T) {
	path := writeTemp(t, "regs.txt", "chr1\tnotanumber\t200\n")
	_, err := ReadRegions(path, nil)
	assert.Error(t, err)
}

func TestReadRegionsRejectsCoordinateOverflow(t *testing.T) {
	path := writeTemp(t, "regs.txt", "chr1\t1\t2147483648\n")
	_, err := ReadRegions(path, nil)
	assert.Error(t, err)
}

func TestReadRegionsSkipsBlankAndCommentLines(t *testing.T) {
	path := writeTemp(t, "regs.txt", "\n# a comment\nchr1\t1\t10\n")
	got, err := ReadRegions(path, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
