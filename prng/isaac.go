// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import "encoding/binary"

// ISAAC is Bob Jenkins' 32-bit ISAAC generator.
type ISAAC struct {
	carry

	mm  [256]uint32
	res [256]uint32

	aa, bb, cc uint32

	cnt int
}

// Name implements PRNG.
func (g *ISAAC) Name() string { return "isaac" }

// StateSize implements PRNG.
func (g *ISAAC) StateSize() int { return 32 }

// Seed implements PRNG.
func (g *ISAAC) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	var key [256]uint32

	for i := 0; i*4 < len(seed); i++ {
		key[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}

	g.randInit(&key)
	g.reset()
}

// Fill implements PRNG.
func (g *ISAAC) Fill(p []byte) {
	g.fill(p, 4, func() uint64 { return uint64(g.next()) })
}

//nolint:dupword
func (g *ISAAC) randInit(key *[256]uint32) {
	var a, b, c, d, e, f, gg, h uint32

	a, b, c, d = 0x9e3779b9, 0x9e3779b9, 0x9e3779b9, 0x9e3779b9
	e, f, gg, h = 0x9e3779b9, 0x9e3779b9, 0x9e3779b9, 0x9e3779b9

	mix := func() {
		a ^= b << 11
		d += a
		b += c
		b ^= c >> 2
		e += b
		c += d
		c ^= d << 8
		f += c
		d += e
		d ^= e >> 16
		gg += d
		e += f
		e ^= f << 10
		h += e
		f += gg
		f ^= gg >> 4
		a += f
		gg += h
		gg ^= h << 8
		b += gg
		h += a
		h ^= a >> 9
		c += h
		a += b
	}

	for i := 0; i < 4; i++ {
		mix()
	}

	// first pass: fold the key into the state
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

	// second pass: mix the state into itself
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

func (g *ISAAC) round() {
	g.cc++
	g.bb += g.cc

	a, b := g.aa, g.bb

	for i := 0; i < 256; i++ {
		x := g.mm[i]

		switch i & 3 {
		case 0:
			a ^= a << 13
		case 1:
			a ^= a >> 6
		case 2:
			a ^= a << 2
		case 3:
			a ^= a >> 16
		}

		a += g.mm[(i+128)&255]

		y := g.mm[(x>>2)&255] + a + b
		g.mm[i] = y

		b = g.mm[(y>>10)&255] + x
		g.res[i] = b
	}

	g.aa, g.bb = a, b
	g.cnt = 256
}

func (g *ISAAC) next() uint32 {
	if g.cnt == 0 {
		g.round()
	}

	v := g.res[256-g.cnt]
	g.cnt--

	return v
}
