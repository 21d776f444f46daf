package achrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pd3/utils/internal/region"
)

// A single background region spanning the whole chromosome with one
// target inside it; with L=11 the artificial chromosome should equal
// the real chromosome and amax=989.
func TestBuildWholeChromosomeBackground(t *testing.T) {
	chr := &region.Chr{
		Name: "chr1",
		Len:  1000,
		Regs: []region.Reg{
			{Beg: 0, Len: 100, IsTarget: false},
			{Beg: 100, Len: 100, IsTarget: true},
			{Beg: 200, Len: 800, IsTarget: false},
		},
	}

	require.NoError(t, Build(chr, 11, Options{}))
	assert.EqualValues(t, 1000, chr.ALen)
	assert.EqualValues(t, 989, chr.AMax)

	ok := region.Overlaps(chr.TgtIdx, 100, 200)
	assert.True(t, ok, "target range should be indexed in artificial coordinates")
	assert.False(t, region.Overlaps(chr.TgtIdx, 0, 100))
}

// When L==1 every spliced interval is appended verbatim and amax is
// simply alen-1.
func TestBuildCallLenOne(t *testing.T) {
	chr := &region.Chr{
		Name: "chr1",
		Len:  1000,
		Regs: []region.Reg{
			{Beg: 10, Len: 5, IsTarget: true},
			{Beg: 20, Len: 5, IsTarget: false},
		},
	}
	require.NoError(t, Build(chr, 1, Options{}))
	assert.EqualValues(t, 10, chr.ALen)
	assert.EqualValues(t, 9, chr.AMax)
}

// A gap between two spliced regions produces a left-overhang extension
// that grows alen but is never itself a target or background hit.
func TestBuildLeftOverhangIsAnonymous(t *testing.T) {
	chr := &region.Chr{
		Name: "chr1",
		Len:  1000,
		Regs: []region.Reg{
			{Beg: 100, Len: 10, IsTarget: true}, // [100,109]
			{Beg: 500, Len: 10, IsTarget: false}, // [500,509], gap of 390 before it
		},
	}
	const L = 5
	require.NoError(t, Build(chr, L, Options{NeedBgIdx: true}))

	// Both regions pick up a leading anonymous overhang of L-1=4
	// positions (even the very first region, since a call can start
	// before the first accessible interval and still reach into it),
	// plus each region's own 10 positions: 4+10+4+10 = 28.
	assert.EqualValues(t, 4+10+4+10, chr.ALen)

	assert.True(t, region.Overlaps(chr.TgtIdx, 4, 14))
	assert.True(t, region.Overlaps(chr.BgIdx, 18, 28))

	// The overhangs themselves (artificial positions [0,4) and [14,18))
	// must not be indexed as either a target or background hit.
	assert.False(t, region.Overlaps(chr.TgtIdx, 0, 4))
	assert.False(t, region.Overlaps(chr.BgIdx, 0, 4))
	assert.False(t, region.Overlaps(chr.TgtIdx, 14, 18))
	assert.False(t, region.Overlaps(chr.BgIdx, 14, 18))
}

// Segments let a caller translate an artificial placement back to the
// real coordinate it represents, including positions that fall in an
// anonymous overhang rather than inside a spliced region.
func TestBuildSegmentsTranslateArtificialPositions(t *testing.T) {
	chr := &region.Chr{
		Name: "chr1",
		Len:  1000,
		Regs: []region.Reg{
			{Beg: 100, Len: 10, IsTarget: true},  // [100,109]
			{Beg: 500, Len: 10, IsTarget: false}, // [500,509]
		},
	}
	const L = 5
	require.NoError(t, Build(chr, L, Options{NeedBgIdx: true}))

	real, ok := chr.Translate(0) // first overhang position
	require.True(t, ok)
	assert.EqualValues(t, 96, real)

	real, ok = chr.Translate(4) // first position of the target region itself
	require.True(t, ok)
	assert.EqualValues(t, 100, real)

	real, ok = chr.Translate(17) // inside the second overhang
	require.True(t, ok)
	assert.EqualValues(t, 499, real)

	real, ok = chr.Translate(20) // inside the background region
	require.True(t, ok)
	assert.EqualValues(t, 502, real)

	_, ok = chr.Translate(chr.ALen) // past the end
	assert.False(t, ok)
}

func TestBuildRejectsZeroCallLen(t *testing.T) {
	chr := &region.Chr{Name: "chr1", Len: 100}
	assert.Error(t, Build(chr, 0, Options{}))
}

func TestBuildEmptyRegions(t *testing.T) {
	chr := &region.Chr{Name: "chr1", Len: 100}
	require.NoError(t, Build(chr, 10, Options{}))
	assert.EqualValues(t, 0, chr.ALen)
	assert.EqualValues(t, 0, chr.AMax)
}
