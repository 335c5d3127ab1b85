// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import "encoding/binary"

// ISAAC64 is the 64-bit variant of Bob Jenkins' ISAAC generator.
type ISAAC64 struct {
	carry

	mm  [256]uint64
	res [256]uint64

	aa, bb, cc uint64

	cnt int
}

// Name implements PRNG.
func (g *ISAAC64) Name() string { return "isaac64" }

// StateSize implements PRNG.
func (g *ISAAC64) StateSize() int { return 64 }

// Seed implements PRNG.
func (g *ISAAC64) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	var key [256]uint64

	for i := 0; i*8 < len(seed); i++ {
		key[i] = binary.LittleEndian.Uint64(seed[i*8:])
	}

	g.randInit(&key)
	g.reset()
}

// Fill implements PRNG.
func (g *ISAAC64) Fill(p []byte) {
	g.fill(p, 8, g.next)
}

//nolint:dupword
func (g *ISAAC64) randInit(key *[256]uint64) {
	const golden = 0x9e3779b97f4a7c13

	var a, b, c, d, e, f, gg, h uint64

	a, b, c, d = golden, golden, golden, golden
	e, f, gg, h = golden, golden, golden, golden

	mix := func() {
		a -= e
		f ^= h >> 9
		h += a
		b -= f
		gg ^= a << 9
		a += b
		c -= gg
		h ^= b >> 23
		b += c
		d -= h
		a ^= c << 15
		c += d
		e -= a
		b ^= d >> 14
		d += e
		f -= b
		c ^= e << 20
		e += f
		gg -= c
		d ^= f >> 17
		f += gg
		h -= d
		e ^= gg << 14
		gg += h
	}

	for i := 0; i < 4; i++ {
		mix()
	}

	for i := 0; i < 256; i += 8 {
		a += key[i]
		b += key[i+1]
		c += key[i+2]
		d += key[i+3]
		e += key[i+4]
		f += key[i+5]
		gg += key[i+6]
		h += key[i+7]

		mix()

		g.mm[i] = a
		g.mm[i+1] = b
		g.mm[i+2] = c
		g.mm[i+3] = d
		g.mm[i+4] = e
		g.mm[i+5] = f
		g.mm[i+6] = gg
		g.mm[i+7] = h
	}

	for i := 0; i < 256; i += 8 {
		a += g.mm[i]
		b += g.mm[i+1]
		c += g.mm[i+2]
		d += g.mm[i+3]
		e += g.mm[i+4]
		f += g.mm[i+5]
		gg += g.mm[i+6]
		h += g.mm[i+7]

		mix()

		g.mm[i] = a
		g.mm[i+1] = b
		g.mm[i+2] = c
		g.mm[i+3] = d
		g.mm[i+4] = e
		g.mm[i+5] = f
		g.mm[i+6] = gg
		g.mm[i+7] = h
	}

	g.aa, g.bb, g.cc = 0, 0, 0

	g.round()
}

func (g *ISAAC64) round() {
	g.cc++
	g.bb += g.cc

	a, b := g.aa, g.bb

	for i := 0; i < 256; i++ {
		x := g.mm[i]

		switch i & 3 {
		case 0:
			a = ^(a ^ (a << 21))
		case 1:
			a ^= a >> 5
		case 2:
			a ^= a << 12
		case 3:
			a ^= a >> 33
		}

		a += g.mm[(i+128)&255]

		y := g.mm[(x>>3)&255] + a + b
		g.mm[i] = y

		b = g.mm[(y>>11)&255] + x
		g.res[i] = b
	}

	g.aa, g.bb = a, b
	g.cnt = 256
}

func (g *ISAAC64) next() uint64 {
	if g.cnt == 0 {
		g.round()
	}

	v := g.res[256-g.cnt]
	g.cnt--

	return v
}
