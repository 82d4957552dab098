package ports

import "math/rand/v2"

// RNGPort hands out replicate-scoped random sources.
type RNGPort interface {
	// Stream returns a fresh generator for one bootstrap replicate. Two calls
	// with the same replicate index must yield generators producing identical
	// sequences, regardless of call order or goroutine.
	Stream(replicate int) *rand.Rand
}
