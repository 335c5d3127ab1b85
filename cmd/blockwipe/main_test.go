// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockwipe/blockwipe/wipe"
)

func TestMalformedFlagsAreConfigInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"--rounds=abc"},
		{"--sync=x"},
		{"--nosuchflag"},
	} {
		rootCmd.SetArgs(args)

		err := rootCmd.Execute()
		require.Error(t, err, args)
		assert.ErrorIs(t, err, wipe.ErrConfigInvalid, args)
	}
}
