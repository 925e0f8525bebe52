// Package rng is the only source of randomness the simulation consumes.
//
// The generator is mulberry32: a 32-bit add-and-mix construction that is
// fast, well distributed and reproduces the same sequence for the same seed
// on every platform.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// Salts separate the streams derived for different operations in one week.
const (
	SaltTurn    uint32 = 1
	SaltChoice  uint32 = 2
	SaltSession uint32 = 3
	SaltNewGame uint32 = 4
	SaltTempt   uint32 = 5
)

type RNG struct {
	state uint32
}

func New(seed uint32) *RNG {
	return &RNG{state: seed}
}

// ForTurn derives the generator for one operation on one week of a run.
func ForTurn(seed int64, week int, salt uint32) *RNG {
	uw := uint64(uint32(int32(week)))
	v := uint64(seed) ^ (uw * 0x9e3779b97f4a7c15) ^ (uint64(salt) * 0xbf58476d1ce4e5b9)
	h := mix64(v)
	return New(uint32(h ^ (h >> 32)))
}

// NewSeed draws a fresh run seed from crypto/rand. Only new-game creation may call it.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	// Keep seeds positive so they survive JSON consumers that parse numbers as float64.
	return int64(binary.LittleEndian.Uint64(b[:]) & (1<<53 - 1)), nil
}

func (r *RNG) State() uint32 { return r.state }

// Next returns a float in [0,1).
func (r *RNG) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// NextInt returns an integer in [min,max], both inclusive.
func (r *RNG) NextInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(math.Floor(r.Next()*float64(max-min+1)))
}

func (r *RNG) NextFloat(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Next()*(max-min)
}

// Chance is a Bernoulli draw. It always consumes exactly one value so call
// order, not probability, decides the rest of the stream.
func (r *RNG) Chance(p float64) bool {
	v := r.Next()
	return v < p
}

// Pick returns an index in [0,n).
func (r *RNG) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return r.NextInt(0, n-1)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
