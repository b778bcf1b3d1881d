// Package random provides seeded, reproducible pseudo-random streams.
//
// A single user-supplied seed fans out through a SeedFactory to every
// place that needs randomness, so that a fixed seed yields the same
// sequence of values on every run and platform. There is no global
// generator state.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	mathrand "math/rand"
)

// MaxSeed is the largest accepted seed value. Seeds are capped at 32 bits
// so that every derived child seed is itself a valid seed.
const MaxSeed = uint64(math.MaxUint32)

// Seed seeds a generator. Construct one with NewSeed.
type Seed struct {
	value uint64
}

// InvalidRangeError reports a generator constructed with an empty range.
type InvalidRangeError struct {
	Low, High int64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid random range: upper bound %d is smaller than lower bound %d", e.High, e.Low)
}

// NewSeed validates and wraps a seed value. Values above MaxSeed are
// rejected.
func NewSeed(value uint64) (Seed, error) {
	if value > MaxSeed {
		return Seed{}, fmt.Errorf("seed %d is larger than the generator capacity %d", value, MaxSeed)
	}
	return Seed{value: value}, nil
}

// MustSeed is NewSeed for statically known values; it panics on error.
func MustSeed(value uint64) Seed {
	seed, err := NewSeed(value)
	if err != nil {
		panic(err)
	}
	return seed
}

// NonDeterministicSeed draws a fresh seed from the operating system.
// It changes with every call.
func NonDeterministicSeed() Seed {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// The system entropy source failing is not recoverable here.
		panic(fmt.Sprintf("reading random seed: %v", err))
	}
	return Seed{value: binary.LittleEndian.Uint64(buf[:]) & MaxSeed}
}

// Value returns the raw seed value.
func (s Seed) Value() uint64 { return s.value }

func newRand(seed Seed) *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(int64(seed.value))) //nolint:gosec
}

// FastInt is a stream of uniformly distributed int64 values over the full
// range. Copies of a FastInt share one underlying generator, so drawing
// from one copy advances the others; a separate stream comes from a new
// NewFastInt call.
type FastInt struct {
	rng *mathrand.Rand
}

// NewFastInt returns a FastInt stream for the given seed.
func NewFastInt(seed Seed) *FastInt {
	return &FastInt{rng: newRand(seed)}
}

// Next returns the next value of the stream.
func (g *FastInt) Next() int64 {
	return int64(g.rng.Uint64())
}

// UniformInt is a stream of int64 values uniform over an inclusive range.
type UniformInt struct {
	rng  *mathrand.Rand
	low  int64
	span uint64 // 0 means the full int64 range
}

// NewUniformInt returns a stream uniform over [low, high]. Both bounds are
// inclusive; high < low is an InvalidRangeError.
func NewUniformInt(low, high int64, seed Seed) (*UniformInt, error) {
	if high < low {
		return nil, &InvalidRangeError{Low: low, High: high}
	}
	return &UniformInt{
		rng:  newRand(seed),
		low:  low,
		span: uint64(high-low) + 1,
	}, nil
}

// Next returns the next value of the stream.
func (g *UniformInt) Next() int64 {
	if g.span == 0 {
		return int64(g.rng.Uint64())
	}
	return g.low + int64(g.rng.Uint64()%g.span)
}

// UniformDouble is a stream of float64 values uniform over [low, high) if
// low < high, and the constant low otherwise.
type UniformDouble struct {
	rng       *mathrand.Rand
	low, high float64
}

// NewUniformDouble returns a stream over [low, high).
func NewUniformDouble(low, high float64, seed Seed) *UniformDouble {
	return &UniformDouble{rng: newRand(seed), low: low, high: high}
}

// Next returns the next value of the stream.
func (g *UniformDouble) Next() float64 {
	if g.low >= g.high {
		return g.low
	}
	return g.low + g.rng.Float64()*(g.high-g.low)
}

// Shuffle permutes the sequence in place with a Fisher-Yates shuffle
// driven by the given seed.
func Shuffle[T any](sequence []T, seed Seed) {
	newRand(seed).Shuffle(len(sequence), func(i, j int) {
		sequence[i], sequence[j] = sequence[j], sequence[i]
	})
}

// SeedFactory produces a deterministic infinite stream of child seeds.
// Use it to decorrelate multiple generators spawned from one user seed.
type SeedFactory struct {
	rng *mathrand.Rand
}

// NewSeedFactory returns a factory seeded with the given value.
func NewSeedFactory(seed Seed) *SeedFactory {
	return &SeedFactory{rng: newRand(seed)}
}

// Next returns the next child seed.
func (f *SeedFactory) Next() Seed {
	return Seed{value: uint64(f.rng.Uint32())}
}

// NextN returns the next n child seeds.
func (f *SeedFactory) NextN(n int) []Seed {
	seeds := make([]Seed, n)
	for i := range seeds {
		seeds[i] = f.Next()
	}
	return seeds
}
