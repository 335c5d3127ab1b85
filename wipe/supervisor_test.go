// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/blockwipe/blockwipe/block"
	"github.com/blockwipe/blockwipe/wipe"
)

func TestSupervisorRun(t *testing.T) {
	targets := []*wipe.Target{
		newFileTarget(t, testDeviceSize),
		newFileTarget(t, testDeviceSize),
	}

	plan := newTestPlan(t, "zero")

	results := wipe.NewSupervisor(plan, targets, zaptest.NewLogger(t)).Run(context.Background())
	require.Len(t, results, 2)

	for i, r := range results {
		assert.NoErrorf(t, r.Err, "target %d", i)
		assert.Equal(t, wipe.StateSuccess, r.Target.State())
	}

	assert.Zero(t, wipe.ExitCode(results))
}

func TestSupervisorErrorIsolation(t *testing.T) {
	good := newFileTarget(t, testDeviceSize)
	bad := wipe.NewTarget(&block.Disk{Path: filepath.Join(t.TempDir(), "missing"), Size: 1024})

	plan := newTestPlan(t, "zero")

	results := wipe.NewSupervisor(plan, []*wipe.Target{good, bad}, zaptest.NewLogger(t)).Run(context.Background())
	require.Len(t, results, 2)

	// the failing device must not disturb the healthy one
	assert.NoError(t, results[0].Err)
	assert.Equal(t, wipe.StateSuccess, good.State())
	assert.Equal(t, int64(testDeviceSize), good.Progress().RunBytes)

	assert.ErrorIs(t, results[1].Err, wipe.ErrOpenFailed)
	assert.Equal(t, wipe.StateFailed, bad.State())

	assert.Equal(t, 1, wipe.ExitCode(results))
}

func TestSupervisorCancellation(t *testing.T) {
	target := newFileTarget(t, testDeviceSize)

	plan := newTestPlan(t, "gutmann")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := wipe.NewSupervisor(plan, []*wipe.Target{target}, zaptest.NewLogger(t)).Run(ctx)
	require.Len(t, results, 1)

	assert.ErrorIs(t, results[0].Err, wipe.ErrCancelled)
	assert.Equal(t, wipe.StateCancelled, target.State())
	assert.Equal(t, 1, wipe.ExitCode(results))
}

func TestSupervisorRunID(t *testing.T) {
	plan := newTestPlan(t, "zero")

	a := wipe.NewSupervisor(plan, nil, zaptest.NewLogger(t))
	b := wipe.NewSupervisor(plan, nil, zaptest.NewLogger(t))

	assert.NotEqual(t, a.RunID(), b.RunID())
}
