// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package prng provides the pseudo-random stream generators used for random
// wipe passes.
//
// Every generator produces an indefinite byte stream from a fixed-size seed.
// The stream is fully determined by the seed: reseeding with the same bytes
// rewinds the generator, which is how verification replays a written pass.
package prng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"
)

// PRNG is a seedable pseudo-random byte stream.
//
// Fill output is deterministic given the seed and is independent of how the
// output is sliced across Fill calls.
type PRNG interface {
	// Name returns the canonical generator name.
	Name() string

	// StateSize returns the seed length in bytes.
	StateSize() int

	// Seed (re)initializes the generator. Seeds shorter than StateSize are
	// zero-padded, longer ones are truncated.
	Seed(seed []byte)

	// Fill writes the next len(p) bytes of the stream into p.
	Fill(p []byte)
}

var registry = map[string]func() PRNG{
	"mt19937":            func() PRNG { return &MT19937{} },
	"isaac":              func() PRNG { return &ISAAC{} },
	"isaac64":            func() PRNG { return &ISAAC64{} },
	"add_lagg_fibonacci": func() PRNG { return &Fibonacci{} },
	"xoroshiro256":       func() PRNG { return &Xoshiro256{} },
	"aes_ctr":            func() PRNG { return &AESCTR{} },
}

var aliases = map[string]string{
	"mersenne":                "mt19937",
	"twister":                 "mt19937",
	"isaac_prng":              "isaac",
	"isaac64_prng":            "isaac64",
	"add_lagg_fibonacci_prng": "add_lagg_fibonacci",
	"fibonacci":               "add_lagg_fibonacci",
	"xoroshiro256_prng":       "xoroshiro256",
	"xoshiro256":              "xoroshiro256",
	"aes-ctr":                 "aes_ctr",
	"aes_ctr_prng":            "aes_ctr",
}

// New returns a fresh, unseeded generator by name (canonical or alias).
func New(name string) (PRNG, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown prng %q", name)
	}

	return ctor(), nil
}

// Names returns the canonical generator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))

	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DefaultName returns the generator used when the operator picks none:
// xoroshiro256 on 64-bit hosts, the additive lagged-Fibonacci otherwise.
func DefaultName() string {
	if bits.UintSize == 64 {
		return "xoroshiro256"
	}

	return "add_lagg_fibonacci"
}

// NewSeed draws seed material for the generator from the host CSPRNG.
func NewSeed(g PRNG) ([]byte, error) {
	seed := make([]byte, g.StateSize())

	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}

	return seed, nil
}

// normalizeSeed pads or truncates seed to exactly size bytes.
func normalizeSeed(seed []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, seed)

	return out
}

// carry buffers the unread tail of the last generated word so that the byte
// stream does not depend on how Fill calls slice it.
type carry struct {
	buf [8]byte
	pos int
	end int
}

func (c *carry) reset() {
	c.pos, c.end = 0, 0
}

// fill tiles p with little-endian words of the given width from next.
func (c *carry) fill(p []byte, width int, next func() uint64) {
	for len(p) > 0 {
		if c.pos == c.end {
			binary.LittleEndian.PutUint64(c.buf[:], next())
			c.pos, c.end = 0, width
		}

		n := copy(p, c.buf[c.pos:c.end])
		c.pos += n
		p = p[n:]
	}
}

// splitmix64 is the seed expander shared by the word generators.
func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15

	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}
