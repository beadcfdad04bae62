// Package rng provides explicitly owned, explicitly seeded random streams.
// Two streams built from the same seed return identical draws for the same
// sequence of calls.
package rng

import (
	"math/rand"
)

// Stream is a deterministic pseudo-random generator.
type Stream struct {
	*rand.Rand
}

func New(seed int64) *Stream {
	return &Stream{Rand: rand.New(rand.NewSource(seed))}
}

// ForRepeat returns the stream of one repeat of a batch seeded with seed.
func ForRepeat(seed int64, repeat int) *Stream {
	return New(Derive(seed, repeat))
}

// FlipCoin returns true with probability p. p <= 0 never succeeds and
// p >= 1 always does.
func (s *Stream) FlipCoin(p float64) bool {
	return s.Float64() < p
}

// NextIndex returns a uniform index in [0, n).
func (s *Stream) NextIndex(n int) int {
	return s.Intn(n)
}

// Derive mixes a base seed and a repeat index with the splitmix64 finalizer,
// so neighbouring seeds and repeats do not share streams.
func Derive(seed int64, repeat int) int64 {
	z := uint64(seed) + uint64(repeat+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}
