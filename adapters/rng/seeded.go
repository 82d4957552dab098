// Package rng provides deterministic, replicate-scoped random sources.
package rng

import "math/rand/v2"

// SeededAdapter implements ports.RNGPort with one PCG stream per replicate.
// Replicate i is seeded with (i, base) and nothing else, so its draws do not
// depend on scheduling, worker count or which other replicates ran.
type SeededAdapter struct {
	base uint64
}

// NewSeededAdapter creates an adapter. base selects an independent family of
// replicate streams; 0 gives streams seeded by the replicate index alone.
func NewSeededAdapter(base uint64) *SeededAdapter {
	return &SeededAdapter{base: base}
}

// Stream returns a new generator for replicate
func (a *SeededAdapter) Stream(replicate int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(replicate), a.base))
}

// Base returns the stream family selector
func (a *SeededAdapter) Base() uint64 {
	return a.base
}
