package core

import (
	"math"
	"math/rand/v2"
)

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Int64 returns a non-negative pseudo-random int64.
func (r *RNG) Int64() int64 { return r.r.Int64() }

// Uint32 returns a pseudo-random uint32.
func (r *RNG) Uint32() uint32 { return r.r.Uint32() }

// Float32n returns a random float32 in [lo, hi).
func (r *RNG) Float32n(lo, hi float32) float32 {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Float32()*(hi-lo)
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// Hash32 is a stateless PCG-style integer hash. Equal inputs always produce
// equal outputs, which lets parallel workers derive per-index randomness
// without sharing a generator.
func Hash32(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// Mix combines a seed with a sequence of indices into one hash.
func Mix(seed uint32, parts ...uint32) uint32 {
	h := Hash32(seed)
	for _, p := range parts {
		h = Hash32(h ^ p)
	}
	return h
}

// HashFloat maps a hash into [0, 1).
func HashFloat(h uint32) float32 {
	return float32(h>>8) / float32(1<<24)
}

// HashDirection maps a hash onto a unit vector.
func HashDirection(h uint32) (float32, float32) {
	angle := float64(HashFloat(h)) * 2 * math.Pi
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}
