// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wipe implements the erasure engine: wipe methods, the per-device
// pass executor and worker, and the supervisor coordinating a run.
package wipe

import "errors"

// Error kinds surfaced by the engine. Everything returned from a worker
// matches one of these via errors.Is.
var (
	// ErrOpenFailed the device could not be opened (permissions, missing,
	// already locked).
	ErrOpenFailed = errors.New("failed to open device")

	// ErrSizeUnknown the device reports a zero or unknowable length.
	ErrSizeUnknown = errors.New("device size unknown")

	// ErrWriteFailed the write error threshold was exceeded during a pass.
	ErrWriteFailed = errors.New("write pass failed")

	// ErrVerifyFailed verification hit a mismatch or exceeded the read error
	// threshold.
	ErrVerifyFailed = errors.New("verification failed")

	// ErrCancelled the operator stopped the run.
	ErrCancelled = errors.New("operation cancelled")

	// ErrConfigInvalid a malformed argument or unknown enum value, raised
	// before any worker starts.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvariantBroken an assertion that should never fire did; fatal.
	ErrInvariantBroken = errors.New("internal invariant broken")
)
