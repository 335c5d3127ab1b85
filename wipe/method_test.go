// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockwipe/blockwipe/wipe"
)

func TestMethodPassCounts(t *testing.T) {
	for name, count := range map[string]int{
		"zero":        1,
		"one":         1,
		"random":      1,
		"verify_zero": 1,
		"verify_one":  1,
		"dodshort":    3,
		"dod522022m":  7,
		"ops2":        8,
		"is5enh":      3,
		"gutmann":     35,
	} {
		method, err := wipe.LookupMethod(name)
		require.NoError(t, err)

		assert.Equal(t, count, method.PassCount(), name)

		passes, err := method.Passes(rand.Reader)
		require.NoError(t, err)

		assert.Len(t, passes, count, name)
	}
}

func TestDodShort(t *testing.T) {
	method, err := wipe.LookupMethod("dodshort")
	require.NoError(t, err)

	// deterministic entropy pins the drawn pattern byte
	passes, err := method.Passes(bytes.NewReader([]byte{0x3c}))
	require.NoError(t, err)
	require.Len(t, passes, 3)

	assert.Equal(t, []byte{0x3c}, passes[0].Pattern)
	assert.Equal(t, []byte{0xc3}, passes[1].Pattern)
	assert.True(t, passes[2].Stream())
}

func TestDod522022M(t *testing.T) {
	method, err := wipe.LookupMethod("dod522022m")
	require.NoError(t, err)

	passes, err := method.Passes(bytes.NewReader([]byte{0x0f, 0xa5}))
	require.NoError(t, err)
	require.Len(t, passes, 7)

	assert.Equal(t, []byte{0x0f}, passes[0].Pattern)
	assert.Equal(t, []byte{0xf0}, passes[1].Pattern)
	assert.True(t, passes[2].Stream())
	assert.Equal(t, []byte{0x00}, passes[3].Pattern)
	assert.Equal(t, []byte{0xa5}, passes[4].Pattern)
	assert.Equal(t, []byte{0x5a}, passes[5].Pattern)
	assert.True(t, passes[6].Stream())
}

func TestOps2(t *testing.T) {
	method, err := wipe.LookupMethod("ops2")
	require.NoError(t, err)

	assert.True(t, method.ForceVerifyFinalStream())

	passes, err := method.Passes(bytes.NewReader([]byte{0x11}))
	require.NoError(t, err)
	require.Len(t, passes, 8)

	for i := 0; i < 7; i++ {
		expected := byte(0x11)
		if i%2 == 1 {
			expected = 0xee
		}

		assert.Equalf(t, []byte{expected}, passes[i].Pattern, "pass %d", i+1)
	}

	assert.True(t, passes[7].Stream())
}

func TestIs5Enh(t *testing.T) {
	method, err := wipe.LookupMethod("is5enh")
	require.NoError(t, err)

	assert.True(t, method.ForceVerifyFinalStream())

	passes, err := method.Passes(rand.Reader)
	require.NoError(t, err)
	require.Len(t, passes, 3)

	assert.Equal(t, []byte{0x00}, passes[0].Pattern)
	assert.Equal(t, []byte{0xff}, passes[1].Pattern)
	assert.True(t, passes[2].Stream())
}

func TestGutmann(t *testing.T) {
	method, err := wipe.LookupMethod("gutmann")
	require.NoError(t, err)

	passes, err := method.Passes(rand.Reader)
	require.NoError(t, err)
	require.Len(t, passes, 35)

	for i := 0; i < 4; i++ {
		assert.Truef(t, passes[i].Stream(), "pass %d", i+1)
		assert.Truef(t, passes[34-i].Stream(), "pass %d", 35-i)
	}

	assert.Equal(t, []byte{0x55}, passes[4].Pattern)
	assert.Equal(t, []byte{0xaa}, passes[5].Pattern)
	assert.Equal(t, []byte{0x92, 0x49, 0x24}, passes[6].Pattern)

	// passes 10-25 are the 0x00..0xFF single-byte sweep
	for i := 0; i < 16; i++ {
		assert.Equal(t, []byte{byte(i) * 0x11}, passes[9+i].Pattern)
	}

	assert.Equal(t, []byte{0x6d, 0xb6, 0xdb}, passes[28].Pattern)
	assert.Equal(t, []byte{0xdb, 0x6d, 0xb6}, passes[30].Pattern)
}

func TestVerifyOnlyMethods(t *testing.T) {
	for name, pattern := range map[string]byte{
		"verify_zero": 0x00,
		"verify_one":  0xff,
	} {
		method, err := wipe.LookupMethod(name)
		require.NoError(t, err)

		assert.True(t, method.VerifyOnly(), name)

		passes, err := method.Passes(rand.Reader)
		require.NoError(t, err)
		require.Len(t, passes, 1)

		assert.True(t, passes[0].NoWrite, name)
		assert.Equal(t, []byte{pattern}, passes[0].Pattern, name)
	}
}

func TestMethodAliases(t *testing.T) {
	for alias, canonical := range map[string]string{
		"dod3pass": "dodshort",
		"dod":      "dod522022m",
		"prng":     "random",
		"stream":   "random",
	} {
		method, err := wipe.LookupMethod(alias)
		require.NoError(t, err)

		assert.Equal(t, canonical, method.Name(), alias)
	}

	_, err := wipe.LookupMethod("nosuch")
	assert.ErrorIs(t, err, wipe.ErrConfigInvalid)
}

func TestParseVerifyPolicy(t *testing.T) {
	for input, expected := range map[string]wipe.VerifyPolicy{
		"off":  wipe.VerifyNone,
		"none": wipe.VerifyNone,
		"0":    wipe.VerifyNone,
		"last": wipe.VerifyLast,
		"1":    wipe.VerifyLast,
		"all":  wipe.VerifyAll,
		"2":    wipe.VerifyAll,
		"ALL":  wipe.VerifyAll,
	} {
		policy, err := wipe.ParseVerifyPolicy(input)
		require.NoError(t, err, input)

		assert.Equal(t, expected, policy, input)
	}

	_, err := wipe.ParseVerifyPolicy("sometimes")
	assert.ErrorIs(t, err, wipe.ErrConfigInvalid)
}
