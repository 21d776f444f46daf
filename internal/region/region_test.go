package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryOverlapHalfOpen(t *testing.T) {
	entries := []*Entry{
		NewEntry(0, 10, 20, 42),
		NewEntry(1, 30, 40, 43),
	}
	idx, err := NewIndex(entries)
	require.NoError(t, err)

	assert.True(t, Overlaps(idx, 15, 25))
	assert.True(t, Overlaps(idx, 5, 11))
	assert.False(t, Overlaps(idx, 20, 30), "half-open: a query starting exactly at an interval's end must not match")
	assert.False(t, Overlaps(idx, 0, 10), "half-open: a query ending exactly at an interval's start must not match")

	payload, ok := FirstMatch(idx, 10, 20)
	assert.True(t, ok)
	assert.Equal(t, 42, payload)
}

func TestAllMatchesVisitsEveryOverlap(t *testing.T) {
	entries := []*Entry{
		NewEntry(0, 0, 10, 1),
		NewEntry(1, 5, 15, 2),
		NewEntry(2, 100, 110, 3),
	}
	idx, err := NewIndex(entries)
	require.NoError(t, err)

	var got []int
	AllMatches(idx, 0, 20, func(payload int) { got = append(got, payload) })
	assert.ElementsMatch(t, []int{1, 2}, got)
}

func TestOverlapsNilIndex(t *testing.T) {
	assert.False(t, Overlaps(nil, 0, 10))
	_, ok := FirstMatch(nil, 0, 10)
	assert.False(t, ok)
}

func TestRegEnd(t *testing.T) {
	r := Reg{Beg: 10, Len: 5}
	assert.EqualValues(t, 14, r.End())
}

func TestBuildRealIndexes(t *testing.T) {
	chr := &Chr{
		Name: "chr1",
		Len:  100,
		Regs: []Reg{
			{Beg: 0, Len: 10, IsTarget: false},
			{Beg: 10, Len: 10, IsTarget: true},
		},
	}
	require.NoError(t, BuildRealIndexes(chr, true))
	assert.True(t, Overlaps(chr.RealTgtIdx, 10, 20))
	assert.False(t, Overlaps(chr.RealTgtIdx, 0, 10))
	assert.True(t, Overlaps(chr.RealBgIdx, 0, 10))
}

func TestChrReset(t *testing.T) {
	chr := &Chr{CallLen: 5, ALen: 10, AMax: 9}
	chr.Reset()
	assert.Zero(t, chr.CallLen)
	assert.Zero(t, chr.ALen)
	assert.Zero(t, chr.AMax)
	assert.Nil(t, chr.TgtIdx)
	assert.Nil(t, chr.BgIdx)
}
