package recurrence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two equal-length labeled targets, one call; the ratio of simulated
// per-label hit counts should approximate the ratio of their lengths
// (here 1).
func TestScenarioS5RecurrenceAttribution(t *testing.T) {
	chrLens := map[string]uint32{"chr1": 1000}
	bg := []BgRegion{{Chr: "chr1", Beg: 0, End: 999}}
	tgt := []LabeledRegion{
		{Chr: "chr1", Beg: 99, End: 199, Label: "geneA"},
		{Chr: "chr1", Beg: 299, End: 399, Label: "geneB"},
	}
	calls := []CallInput{{Chr: "chr1", Beg: 500, End: 509}} // length 10, accessible, hits neither gene

	driver, err := NewDriver(chrLens, bg, tgt, calls, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, driver.NUsed)
	require.Len(t, driver.CallLens, 1)
	require.EqualValues(t, 10, driver.CallLens[0])

	rng := rand.New(rand.NewSource(1))
	res, err := driver.Run(rng, 50000)
	require.NoError(t, err)

	idxA, idxB := -1, -1
	for i, l := range driver.Labels {
		switch l {
		case "geneA":
			idxA = i
		case "geneB":
			idxB = i
		}
	}
	require.NotEqual(t, -1, idxA)
	require.NotEqual(t, -1, idxB)

	hitsA := sumDist(res.Dist[idxA])
	hitsB := sumDist(res.Dist[idxB])
	require.Greater(t, hitsB, 0)
	ratio := float64(hitsA) / float64(hitsB)
	assert.InDelta(t, 1.0, ratio, 0.3)
}

func sumDist(dist []int) int {
	total := 0
	for k, count := range dist {
		total += k * count
	}
	return total
}

// A call whose length exceeds every chromosome's length can never be
// placed (no legal start position exists on any chromosome), so the
// accessibility retry loop must exhaust and report a fatal error. The
// call itself overlaps the declared accessible region so it survives the
// initial observed-hit filter in NewDriver.
func TestExhaustedRetriesIsFatal(t *testing.T) {
	chrLens := map[string]uint32{"chr1": 5}
	bg := []BgRegion{{Chr: "chr1", Beg: 0, End: 4}}
	tgt := []LabeledRegion{{Chr: "chr1", Beg: 0, End: 0, Label: "x"}}
	calls := []CallInput{{Chr: "chr1", Beg: 0, End: 9}} // length 10 > chr.Len

	driver, err := NewDriver(chrLens, bg, tgt, calls, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, driver.NUsed)

	rng := rand.New(rand.NewSource(1))
	_, err = driver.Run(rng, 10)
	require.Error(t, err)
	var exhausted *ErrExhausted
	assert.ErrorAs(t, err, &exhausted)
}

func TestObservedHitsCountedPerLabel(t *testing.T) {
	chrLens := map[string]uint32{"chr1": 1000}
	bg := []BgRegion{{Chr: "chr1", Beg: 0, End: 999}}
	tgt := []LabeledRegion{{Chr: "chr1", Beg: 99, End: 199, Label: "geneA"}}
	calls := []CallInput{{Chr: "chr1", Beg: 150, End: 159}} // overlaps geneA

	driver, err := NewDriver(chrLens, bg, tgt, calls, Options{})
	require.NoError(t, err)
	require.Len(t, driver.NObs, 1)
	assert.Equal(t, 1, driver.NObs[0])
}
