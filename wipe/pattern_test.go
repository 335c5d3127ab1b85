// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockwipe/blockwipe/prng"
	"github.com/blockwipe/blockwipe/wipe"
)

func TestFixedSourceTiling(t *testing.T) {
	pattern := []byte{0xde, 0xad, 0xbe}

	src, err := wipe.NewFixedSource(pattern)
	require.NoError(t, err)

	// uneven chunk sizes so pattern boundaries straddle Fill calls
	var (
		got []byte
		off int
	)

	for _, n := range []int{1, 7, 513, 4096, 33, 2} {
		buf := make([]byte, n)
		src.Fill(buf)

		got = append(got, buf...)
		off += n
	}

	for i, b := range got {
		require.Equalf(t, pattern[i%len(pattern)], b, "offset %d", i)
	}

	// Reset rewinds to device offset 0
	src.Reset()

	buf := make([]byte, 5)
	src.Fill(buf)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xde, 0xad}, buf)
}

func TestFixedSourceBounds(t *testing.T) {
	_, err := wipe.NewFixedSource(nil)
	assert.ErrorIs(t, err, wipe.ErrConfigInvalid)

	_, err = wipe.NewFixedSource(make([]byte, wipe.MaxPatternLength+1))
	assert.ErrorIs(t, err, wipe.ErrConfigInvalid)

	_, err = wipe.NewFixedSource(make([]byte, wipe.MaxPatternLength))
	assert.NoError(t, err)
}

func TestStreamSourceReplay(t *testing.T) {
	gen, err := prng.New("xoroshiro256")
	require.NoError(t, err)

	seed, err := prng.NewSeed(gen)
	require.NoError(t, err)

	src := wipe.NewStreamSource(gen, seed)

	first := make([]byte, 64*1024)
	src.Fill(first)

	src.Reset()

	second := make([]byte, 64*1024)
	src.Fill(second)

	assert.Equal(t, first, second)
}
