// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"fmt"
	"strings"
)

// VerifyPolicy controls which passes are read back and compared.
type VerifyPolicy int

const (
	// VerifyNone no pass is verified (method-mandated verifications still
	// happen).
	VerifyNone VerifyPolicy = iota
	// VerifyLast only the last pass of each round's sequence is verified.
	VerifyLast
	// VerifyAll every pass is verified.
	VerifyAll
)

func (v VerifyPolicy) String() string {
	switch v {
	case VerifyNone:
		return "off"
	case VerifyLast:
		return "last"
	case VerifyAll:
		return "all"
	default:
		return "invalid"
	}
}

// ParseVerifyPolicy accepts the policy by name (off/last/all) or by numeral
// (0/1/2).
func ParseVerifyPolicy(s string) (VerifyPolicy, error) {
	switch strings.ToLower(s) {
	case "off", "none", "0":
		return VerifyNone, nil
	case "last", "1":
		return VerifyLast, nil
	case "all", "2":
		return VerifyAll, nil
	default:
		return 0, fmt.Errorf("%w: unknown verify policy %q", ErrConfigInvalid, s)
	}
}

// DefaultChunkSize is the I/O buffer size before sector-size rounding.
const DefaultChunkSize = 1024 * 1024

// Plan is the immutable description of a run. It is built once from the
// configuration, validated, and then shared read-only by the supervisor and
// all workers.
//
//nolint:govet
type Plan struct {
	// Method is the wipe method to execute.
	Method *Method

	// PRNG is the stream generator name for random passes.
	PRNG string

	// Rounds is how many times the method's pass sequence is repeated.
	Rounds int

	// Verify is the operator's verification policy.
	Verify VerifyPolicy

	// SyncRate is the number of writes between durability flushes; 0 flushes
	// once at the end of each pass.
	SyncRate int

	// Blank appends a final zero-fill pass after the last round.
	Blank bool

	// ChunkSize is the I/O buffer size in bytes; rounded down to a multiple
	// of the device's logical sector size at open time.
	ChunkSize int

	// MaxWriteErrors is the number of unrecoverable sector write errors
	// tolerated per pass; one more fails the pass.
	MaxWriteErrors int64

	// MaxVerifyErrors is the number of read errors plus sector mismatches
	// tolerated per verification; one more fails it.
	MaxVerifyErrors int64

	// Quiet anonymises serials and other machine identifiers in logs.
	Quiet bool

	// NoSignals skips installing the cancel / status-dump signal handlers.
	NoSignals bool

	// PowerOff schedules a host shutdown after the final report.
	PowerOff bool
}

// NewPlan returns a plan with engine defaults applied.
func NewPlan() *Plan {
	return &Plan{
		Rounds:    1,
		Verify:    VerifyLast,
		Blank:     true,
		ChunkSize: DefaultChunkSize,
	}
}

// Validate checks the plan before any worker starts.
func (p *Plan) Validate() error {
	if p.Method == nil {
		return fmt.Errorf("%w: no method selected", ErrConfigInvalid)
	}

	if p.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrConfigInvalid, p.Rounds)
	}

	if p.SyncRate < 0 {
		return fmt.Errorf("%w: sync rate must be non-negative, got %d", ErrConfigInvalid, p.SyncRate)
	}

	if p.ChunkSize < DefaultBlockSizeFloor {
		return fmt.Errorf("%w: chunk size %d below minimum %d", ErrConfigInvalid, p.ChunkSize, DefaultBlockSizeFloor)
	}

	if p.Verify < VerifyNone || p.Verify > VerifyAll {
		return fmt.Errorf("%w: unknown verify policy %d", ErrConfigInvalid, p.Verify)
	}

	if p.MaxWriteErrors < 0 || p.MaxVerifyErrors < 0 {
		return fmt.Errorf("%w: error thresholds must be non-negative", ErrConfigInvalid)
	}

	if p.PRNG != "" {
		if _, err := newGenerator(p.PRNG); err != nil {
			return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
	}

	return nil
}

// DefaultBlockSizeFloor is the smallest permitted chunk size.
const DefaultBlockSizeFloor = 512

// plannedBytes returns the total bytes the plan will write to a device of
// the given size, used for ETA weighting. Verification reads are not
// included.
func (p *Plan) plannedBytes(deviceSize int64) int64 {
	if p.Method.VerifyOnly() {
		return 0
	}

	passes := int64(p.Method.PassCount()) * int64(p.Rounds)

	if p.Blank {
		passes++
	}

	return passes * deviceSize
}
