// Package rng wraps math/rand with the seed convention used throughout
// biogo-examples (tihar.go, gayatri.go, ganesh.go): a -seed int64 flag
// defaulting to -1, meaning "derive the seed from the clock", with the
// resolved seed always reported back so a run can be reproduced.
package rng

import (
	"math/rand"
	"time"
)

// Resolve returns seed unchanged if it is >= 0, otherwise derives a seed
// from the current time, matching the "-1 means use time.Now().UnixNano()"
// convention of tihar.go/gayatri.go/ganesh.go.
func Resolve(seed int64) int64 {
	if seed >= 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// New builds a *rand.Rand seeded per Resolve(seed), returning both the
// generator and the resolved seed so callers can print it in a SEED
// output record.
func New(seed int64) (*rand.Rand, int64) {
	resolved := Resolve(seed)
	return rand.New(rand.NewSource(resolved)), resolved
}
