// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import (
	"encoding/binary"
	"math/bits"
)

// Xoshiro256 is the xoshiro256** generator (Blackman & Vigna), the default
// stream source on 64-bit hosts.
type Xoshiro256 struct {
	carry

	s [4]uint64
}

// Name implements PRNG.
func (g *Xoshiro256) Name() string { return "xoroshiro256" }

// StateSize implements PRNG.
func (g *Xoshiro256) StateSize() int { return 32 }

// Seed implements PRNG.
func (g *Xoshiro256) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	zero := true

	for i := range g.s {
		g.s[i] = binary.LittleEndian.Uint64(seed[i*8:])

		if g.s[i] != 0 {
			zero = false
		}
	}

	// the all-zero state is a fixed point, expand the seed instead
	if zero {
		state := binary.LittleEndian.Uint64(seed)

		for i := range g.s {
			g.s[i] = splitmix64(&state)
		}
	}

	g.reset()
}

// Fill implements PRNG.
func (g *Xoshiro256) Fill(p []byte) {
	g.fill(p, 8, g.next)
}

func (g *Xoshiro256) next() uint64 {
	result := bits.RotateLeft64(g.s[1]*5, 7) * 9

	t := g.s[1] << 17

	g.s[2] ^= g.s[0]
	g.s[3] ^= g.s[1]
	g.s[1] ^= g.s[2]
	g.s[0] ^= g.s[3]

	g.s[2] ^= t
	g.s[3] = bits.RotateLeft64(g.s[3], 45)

	return result
}
