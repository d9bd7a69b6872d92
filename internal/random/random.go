// Package random isolates every source of randomness behind a small
// interface so the generator and orchestrator can be driven by a fixed seed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source is the subset of *rand.Rand the game needs.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// New returns a deterministic source for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Between returns an integer in [lo, hi].
func Between(r Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Pick returns a uniformly chosen element. items must not be empty.
func Pick[T any](r Source, items []T) T {
	return items[r.IntN(len(items))]
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](r Source, items []T) []T {
	out := append([]T(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Chance reports true with probability p.
func Chance(r Source, p float64) bool {
	return r.Float64() < p
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Suffix returns n random base36 characters.
func Suffix(r Source, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[r.IntN(len(base36))]
	}
	return string(b)
}
