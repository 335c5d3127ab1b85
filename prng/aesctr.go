// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package prng

import (
	"crypto/aes"
	"crypto/cipher"
)

// AESCTR produces an AES-128-CTR keystream. Unlike the other generators it
// meets a cryptographic bar; it is also the slowest of the family.
//
// The 32-byte seed is split into a 16-byte key and a 16-byte initial counter
// block.
type AESCTR struct {
	stream cipher.Stream
}

// Name implements PRNG.
func (g *AESCTR) Name() string { return "aes_ctr" }

// StateSize implements PRNG.
func (g *AESCTR) StateSize() int { return 32 }

// Seed implements PRNG.
func (g *AESCTR) Seed(seed []byte) {
	seed = normalizeSeed(seed, g.StateSize())

	block, err := aes.NewCipher(seed[:aes.BlockSize])
	if err != nil {
		// aes.NewCipher only fails on invalid key sizes
		panic(err)
	}

	g.stream = cipher.NewCTR(block, seed[aes.BlockSize:2*aes.BlockSize])
}

// Fill implements PRNG.
func (g *AESCTR) Fill(p []byte) {
	clear(p)

	g.stream.XORKeyStream(p, p)
}
