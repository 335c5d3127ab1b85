// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import "encoding/binary"

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// MT19937 is the 32-bit Mersenne Twister (Matsumoto & Nishimura), seeded with
// the init_by_array procedure from the reference implementation.
type MT19937 struct {
	carry

	mt  [mtN]uint32
	mti int
}

// Name implements PRNG.
func (g *MT19937) Name() string { return "mt19937" }

// StateSize implements PRNG.
func (g *MT19937) StateSize() int { return 16 }

// Seed implements PRNG.
func (g *MT19937) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	key := make([]uint32, len(seed)/4)
	for i := range key {
		key[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}

	g.seedArray(key)
	g.reset()
}

// Fill implements PRNG.
func (g *MT19937) Fill(p []byte) {
	g.fill(p, 4, func() uint64 { return uint64(g.next()) })
}

func (g *MT19937) seedScalar(s uint32) {
	g.mt[0] = s

	for i := 1; i < mtN; i++ {
		g.mt[i] = 1812433253*(g.mt[i-1]^(g.mt[i-1]>>30)) + uint32(i)
	}

	g.mti = mtN
}

func (g *MT19937) seedArray(key []uint32) {
	g.seedScalar(19650218)

	i, j := 1, 0

	k := mtN
	if len(key) > k {
		k = len(key)
	}

	for ; k > 0; k-- {
		g.mt[i] = (g.mt[i] ^ ((g.mt[i-1] ^ (g.mt[i-1] >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++

		if i >= mtN {
			g.mt[0] = g.mt[mtN-1]
			i = 1
		}

		if j >= len(key) {
			j = 0
		}
	}

	for k = mtN - 1; k > 0; k-- {
		g.mt[i] = (g.mt[i] ^ ((g.mt[i-1] ^ (g.mt[i-1] >> 30)) * 1566083941)) - uint32(i)
		i++

		if i >= mtN {
			g.mt[0] = g.mt[mtN-1]
			i = 1
		}
	}

	g.mt[0] = 0x80000000
}

func (g *MT19937) next() uint32 {
	if g.mti >= mtN {
		for i := 0; i < mtN; i++ {
			y := (g.mt[i] & mtUpperMask) | (g.mt[(i+1)%mtN] & mtLowerMask)

			g.mt[i] = g.mt[(i+mtM)%mtN] ^ (y >> 1)

			if y&1 != 0 {
				g.mt[i] ^= mtMatrixA
			}
		}

		g.mti = 0
	}

	y := g.mt[g.mti]
	g.mti++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18

	return y
}
