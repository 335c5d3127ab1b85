// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import "encoding/binary"

const (
	fibLong  = 55
	fibShort = 24
	fibWarm  = 10 * fibLong
)

// Fibonacci is an additive lagged-Fibonacci generator with lags (55, 24):
// X[n] = X[n-55] + X[n-24] mod 2^64.
//
// The lag table is expanded from the seed with splitmix64 and the generator
// is warmed up before producing output.
type Fibonacci struct {
	carry

	s [fibLong]uint64

	i, j int
}

// Name implements PRNG.
func (g *Fibonacci) Name() string { return "add_lagg_fibonacci" }

// StateSize implements PRNG.
func (g *Fibonacci) StateSize() int { return 32 }

// Seed implements PRNG.
func (g *Fibonacci) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	state := binary.LittleEndian.Uint64(seed)
	for off := 8; off+8 <= len(seed); off += 8 {
		state = state*0x9e3779b97f4a7c15 + binary.LittleEndian.Uint64(seed[off:])
	}

	for i := range g.s {
		g.s[i] = splitmix64(&state)
	}

	g.i, g.j = 0, fibLong-fibShort

	for i := 0; i < fibWarm; i++ {
		g.next()
	}

	g.reset()
}

// Fill implements PRNG.
func (g *Fibonacci) Fill(p []byte) {
	g.fill(p, 8, g.next)
}

func (g *Fibonacci) next() uint64 {
	v := g.s[g.i] + g.s[g.j]
	g.s[g.i] = v

	g.i++
	if g.i == fibLong {
		g.i = 0
	}

	g.j++
	if g.j == fibLong {
		g.j = 0
	}

	return v
}
