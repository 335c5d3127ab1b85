// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sys/unix"

	"github.com/blockwipe/blockwipe/block"
)

// memDevice is an in-memory Device with per-sector fault injection.
type memDevice struct {
	data []byte

	failWrites map[int64]struct{} // absolute offsets of sectors returning EIO
	failReads  map[int64]struct{}
	failAll    bool

	onWrite func(off int64)
}

func newMemDevice(size int) *memDevice {
	return &memDevice{
		data:       bytes.Repeat([]byte{0xee}, size),
		failWrites: map[int64]struct{}{},
		failReads:  map[int64]struct{}{},
	}
}

func (d *memDevice) Size() int64       { return int64(len(d.data)) }
func (d *memDevice) SectorSize() uint  { return block.DefaultBlockSize }
func (d *memDevice) Flush() error      { return nil }
func (d *memDevice) DropCaches() error { return nil }
func (d *memDevice) Close() error      { return nil }

func (d *memDevice) covers(faults map[int64]struct{}, off, n int64) bool {
	for fault := range faults {
		if fault >= off && fault < off+n {
			return true
		}
	}

	return false
}

func (d *memDevice) ReadAt(p []byte, off int64) (int, error) {
	if d.covers(d.failReads, off, int64(len(p))) {
		return 0, unix.EIO
	}

	return copy(p, d.data[off:]), nil
}

func (d *memDevice) WriteAt(p []byte, off int64) (int, error) {
	if d.onWrite != nil {
		d.onWrite(off)
	}

	if d.failAll || d.covers(d.failWrites, off, int64(len(p))) {
		return 0, unix.EIO
	}

	return copy(d.data[off:], p), nil
}

func newMemExecutor(t *testing.T, dev *memDevice, plan *Plan) (*executor, *Progress) {
	t.Helper()

	progress := &Progress{}

	return newExecutor(dev, plan, progress, zaptest.NewLogger(t)), progress
}

func TestWriteSectorDegradation(t *testing.T) {
	dev := newMemDevice(64 * 1024)
	dev.failWrites[4096] = struct{}{}

	plan := NewPlan()
	plan.MaxWriteErrors = 1

	exec, progress := newMemExecutor(t, dev, plan)

	require.NoError(t, exec.runPass(context.Background(), Pass{Pattern: []byte{0x00}}, false))

	// every sector except the failing one was degraded to and written
	assert.Equal(t, int64(1), progress.Snapshot().WriteErrors)

	for off, b := range dev.data {
		expected := byte(0x00)
		if off >= 4096 && off < 4096+block.DefaultBlockSize {
			expected = 0xee
		}

		require.Equalf(t, expected, b, "offset %d", off)
	}
}

func TestWriteFailedThreshold(t *testing.T) {
	dev := newMemDevice(64 * 1024)
	dev.failWrites[0] = struct{}{}

	plan := NewPlan()

	exec, _ := newMemExecutor(t, dev, plan)

	// default threshold: any unrecovered sector fails the pass
	err := exec.runPass(context.Background(), Pass{Pattern: []byte{0x00}}, false)
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestVerifyReadErrorThreshold(t *testing.T) {
	dev := newMemDevice(64 * 1024)
	dev.failReads[512] = struct{}{}

	plan := NewPlan()

	exec, progress := newMemExecutor(t, dev, plan)

	err := exec.runPass(context.Background(), Pass{Pattern: []byte{0xee}}, true)
	assert.ErrorIs(t, err, ErrVerifyFailed)

	// raising the threshold rides over the unreadable sector
	plan.MaxVerifyErrors = 1

	exec, progress = newMemExecutor(t, dev, plan)

	require.NoError(t, exec.runPass(context.Background(), Pass{Pattern: []byte{0xee}}, true))
	assert.Equal(t, int64(1), progress.Snapshot().ReadErrors)
}

func TestCancellationPromptness(t *testing.T) {
	dev := newMemDevice(4 * 1024 * 1024)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var chunks, afterCancel int

	dev.onWrite = func(int64) {
		if ctx.Err() != nil {
			afterCancel++
		}

		chunks++

		if chunks == 2 {
			cancel()
		}
	}

	plan := NewPlan()

	exec, _ := newMemExecutor(t, dev, plan)

	err := exec.runPass(ctx, Pass{Pattern: []byte{0x00}}, false)
	assert.ErrorIs(t, err, ErrCancelled)

	// at most one further chunk-sized write after the cancel is observed
	assert.LessOrEqual(t, afterCancel, 1)
}

func TestErrorIsolationOnWriteFault(t *testing.T) {
	const size = 1024 * 1024

	goodDev := newMemDevice(size)
	badDev := newMemDevice(size)
	badDev.failAll = true

	good := NewTarget(&block.Disk{Path: "mem-good", Size: size})
	good.open = func(bool) (Device, error) { return goodDev, nil }

	bad := NewTarget(&block.Disk{Path: "mem-bad", Size: size})
	bad.open = func(bool) (Device, error) { return badDev, nil }

	method, err := LookupMethod("zero")
	require.NoError(t, err)

	plan := NewPlan()
	plan.Method = method
	plan.Blank = false
	plan.NoSignals = true

	results := NewSupervisor(plan, []*Target{good, bad}, zaptest.NewLogger(t)).Run(context.Background())
	require.Len(t, results, 2)

	// the all-EIO device fails alone, the healthy one wipes fully
	assert.NoError(t, results[0].Err)
	assert.Equal(t, StateSuccess, good.State())
	assert.Equal(t, int64(size), good.Progress().RunBytes)

	assert.ErrorIs(t, results[1].Err, ErrWriteFailed)
	assert.Equal(t, StateFailed, bad.State())

	assert.Equal(t, 1, ExitCode(results))
}
