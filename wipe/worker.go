// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/blockwipe/blockwipe/block"
)

// Target is the engine's per-device context: the enumerated disk metadata
// plus the live progress record. It is created before the run and retained
// by the supervisor until program exit.
type Target struct {
	Disk *block.Disk

	progress Progress

	open func(readOnly bool) (Device, error)
}

// NewTarget wraps an enumerated disk.
func NewTarget(disk *block.Disk) *Target {
	t := &Target{Disk: disk}

	t.open = func(readOnly bool) (Device, error) {
		var opts []block.OpenOption

		if readOnly {
			opts = append(opts, block.WithReadOnly())
		}

		return block.Open(t.Disk.Path, opts...)
	}

	return t
}

// Progress samples the target's progress record.
func (t *Target) Progress() Snapshot {
	return t.progress.Snapshot()
}

// State returns the target's current worker state.
func (t *Target) State() State {
	return t.progress.State()
}

// Worker executes the plan against a single device, driving it from Idle to
// one of the terminal states. Exactly one worker owns a device at a time.
type Worker struct {
	plan   *Plan
	target *Target
	logger *zap.Logger

	entropy io.Reader
}

// NewWorker returns a worker for the target.
func NewWorker(plan *Plan, target *Target, logger *zap.Logger) *Worker {
	return &Worker{
		plan:   plan,
		target: target,
		logger: logger.With(
			zap.String("device", target.Disk.Path),
			zap.String("type", target.Disk.Type.String()),
			zap.String("model", displayID(plan.Quiet, target.Disk.Model)),
			zap.String("serial", displayID(plan.Quiet, target.Disk.Serial)),
		),

		entropy: rand.Reader,
	}
}

// Run wipes the device. The returned error is nil on success and matches one
// of the package error kinds otherwise; the progress record ends in the
// corresponding terminal state either way.
func (w *Worker) Run(ctx context.Context) (err error) {
	progress := &w.target.progress

	defer func() {
		switch {
		case err == nil:
			progress.setState(StateSuccess)
		case errors.Is(err, ErrCancelled):
			progress.setState(StateCancelled)
		default:
			progress.setState(StateFailed)
		}
	}()

	dev, err := w.target.open(w.plan.Method.VerifyOnly())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}

	defer dev.Close() //nolint:errcheck

	if dev.Size() <= 0 {
		return fmt.Errorf("%w: %s", ErrSizeUnknown, w.target.Disk.Path)
	}

	progress.setState(StateRunning)

	exec := newExecutor(dev, w.plan, progress, w.logger)

	for round := 1; round <= w.plan.Rounds; round++ {
		var passes []Pass

		passes, err = w.plan.Method.Passes(w.entropy)
		if err != nil {
			return err
		}

		for i, pass := range passes {
			progress.startPass(round, i+1, len(passes))

			verify := w.shouldVerify(i, len(passes), pass)

			w.logger.Debug("pass started",
				zap.Int("round", round),
				zap.Int("pass", i+1),
				zap.Int("passes", len(passes)),
				zap.Bool("stream", pass.Stream()),
				zap.Bool("verify", verify),
			)

			if err = exec.runPass(ctx, pass, verify); err != nil {
				return fmt.Errorf("round %d pass %d/%d: %w", round, i+1, len(passes), err)
			}
		}
	}

	if w.plan.Blank && !w.plan.Method.VerifyOnly() {
		progress.setState(StateBlanking)
		progress.startPass(w.plan.Rounds, w.plan.Method.PassCount()+1, w.plan.Method.PassCount()+1)

		w.logger.Debug("blanking pass started")

		if err = exec.runPass(ctx, BlankPass, w.shouldVerify(0, 1, BlankPass)); err != nil {
			return fmt.Errorf("blanking pass: %w", err)
		}
	}

	return nil
}

// shouldVerify resolves the verify policy for one pass. Verification-only
// passes always verify; a method may mandate verification of its final PRNG
// pass regardless of the policy.
func (w *Worker) shouldVerify(i, count int, pass Pass) bool {
	// the courtesy zero-fill is never verified, whatever the policy
	if pass.Blank {
		return false
	}

	if pass.NoWrite {
		return true
	}

	last := i == count-1

	if last && pass.Stream() && w.plan.Method.ForceVerifyFinalStream() {
		return true
	}

	switch w.plan.Verify {
	case VerifyAll:
		return true
	case VerifyLast:
		return last
	case VerifyNone:
		return false
	default:
		return false
	}
}

// displayID anonymises a machine identifier when quiet mode is on, keeping a
// stable token so log lines remain correlatable.
func displayID(quiet bool, id string) string {
	if id == "" || !quiet {
		return id
	}

	sum := sha256.Sum256([]byte(id))

	return hex.EncodeToString(sum[:4])
}
