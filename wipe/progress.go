// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a worker.
type State int32

const (
	// StateIdle worker created, not started.
	StateIdle State = iota
	// StateRunning method passes in progress.
	StateRunning
	// StateBlanking final zero-fill pass in progress.
	StateBlanking
	// StateSuccess every required pass and verification completed.
	StateSuccess
	// StateFailed a pass or verification exceeded its error threshold.
	StateFailed
	// StateCancelled the operator stopped the run.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateBlanking:
		return "blanking"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateCancelled
}

// Progress is the per-device progress record.
//
// Exactly one worker publishes to it; the supervisor and the UI sample it
// concurrently. All fields are word-sized atomics, so readers tolerate
// slight staleness but never tear.
type Progress struct {
	state atomic.Int32

	round     atomic.Int64
	pass      atomic.Int64
	passCount atomic.Int64

	passBytes     atomic.Int64 // written in the current pass
	runBytes      atomic.Int64 // written over the whole run
	verifiedBytes atomic.Int64 // read back and compared over the whole run

	writeErrors atomic.Int64
	readErrors  atomic.Int64
	mismatches  atomic.Int64

	lastSync atomic.Int64 // unix nanoseconds of the last durability flush
}

// Snapshot is a point-in-time copy of a progress record.
type Snapshot struct {
	State State

	Round     int
	Pass      int
	PassCount int

	PassBytes     int64
	RunBytes      int64
	VerifiedBytes int64

	WriteErrors int64
	ReadErrors  int64
	Mismatches  int64
}

// State returns the current worker state.
func (p *Progress) State() State {
	return State(p.state.Load())
}

func (p *Progress) setState(s State) {
	p.state.Store(int32(s))
}

// Snapshot samples the record.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		State:         p.State(),
		Round:         int(p.round.Load()),
		Pass:          int(p.pass.Load()),
		PassCount:     int(p.passCount.Load()),
		PassBytes:     p.passBytes.Load(),
		RunBytes:      p.runBytes.Load(),
		VerifiedBytes: p.verifiedBytes.Load(),
		WriteErrors:   p.writeErrors.Load(),
		ReadErrors:    p.readErrors.Load(),
		Mismatches:    p.mismatches.Load(),
	}
}

// startPass resets the per-pass counters and publishes the new position.
func (p *Progress) startPass(round, pass, passCount int) {
	p.round.Store(int64(round))
	p.pass.Store(int64(pass))
	p.passCount.Store(int64(passCount))
	p.passBytes.Store(0)
}

func (p *Progress) addWritten(n int64) {
	p.passBytes.Add(n)
	p.runBytes.Add(n)
}

func (p *Progress) addVerified(n int64) {
	p.verifiedBytes.Add(n)
}

func (p *Progress) addWriteError() int64 {
	return p.writeErrors.Add(1)
}

func (p *Progress) addReadError() int64 {
	return p.readErrors.Add(1)
}

func (p *Progress) addMismatch() int64 {
	return p.mismatches.Add(1)
}

func (p *Progress) touchSync() {
	p.lastSync.Store(time.Now().UnixNano())
}
