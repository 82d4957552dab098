package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// DeriveSeed folds a base seed and a list of labels into a 64-bit seed.
// The same inputs always produce the same seed, so work keyed by labels can
// run in any order without changing its random draws.
func DeriveSeed(base uint64, labels ...string) uint64 {
	buf := make([]byte, 8, 8+16*len(labels))
	binary.LittleEndian.PutUint64(buf, base)
	buf = append(buf, strings.Join(labels, "\x1f")...)
	sum := sha256.Sum256(buf)
	return binary.LittleEndian.Uint64(sum[:8])
}
