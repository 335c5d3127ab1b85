// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siderolabs/go-cmd/pkg/cmd"
	"github.com/siderolabs/go-pointer"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the terminal outcome for one device.
type Result struct {
	Target   *Target
	Err      error
	Duration time.Duration
}

// StatusSignal triggers a human-readable progress dump of all workers.
const StatusSignal = unix.SIGUSR1

const defaultSampleInterval = 500 * time.Millisecond

// Supervisor spawns one worker per target, aggregates their progress and
// handles the run-level lifecycle: cancellation, status dumps, the final
// report and the optional power-off.
type Supervisor struct {
	plan    *Plan
	targets []*Target
	logger  *zap.Logger

	runID          uuid.UUID
	printer        *message.Printer
	sampleInterval time.Duration

	mu       sync.Mutex
	rates    map[string]float64 // device path -> smoothed bytes/sec
	lastSeen map[string]int64
	lastAt   time.Time
}

// NewSupervisor returns a supervisor for the plan and targets.
func NewSupervisor(plan *Plan, targets []*Target, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		plan:    plan,
		targets: targets,
		logger:  logger,

		runID:          uuid.New(),
		printer:        message.NewPrinter(language.English),
		sampleInterval: defaultSampleInterval,

		rates:    map[string]float64{},
		lastSeen: map[string]int64{},
	}
}

// RunID identifies this run in logs and reports.
func (s *Supervisor) RunID() uuid.UUID {
	return s.runID
}

// Run executes the plan against every target in parallel and blocks until
// all workers reach a terminal state. Worker failures are not contagious:
// the error of one device never stops the others.
func (s *Supervisor) Run(ctx context.Context) []Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !s.plan.NoSignals {
		stop := s.installSignals(cancel)
		defer stop()
	}

	s.logger.Info("run started",
		zap.String("run_id", s.runID.String()),
		zap.String("method", s.plan.Method.Label()),
		zap.Int("rounds", s.plan.Rounds),
		zap.String("verify", s.plan.Verify.String()),
		zap.Bool("blank", s.plan.Blank),
		zap.Int("devices", len(s.targets)),
	)

	started := time.Now()

	s.mu.Lock()
	s.lastAt = started
	s.mu.Unlock()

	results := make([]Result, len(s.targets))

	var wg sync.WaitGroup

	for i, target := range s.targets {
		wg.Add(1)

		go func(i int, target *Target) {
			defer wg.Done()

			workerStart := time.Now()

			err := NewWorker(s.plan, target, s.logger).Run(ctx)

			results[i] = Result{
				Target:   target,
				Err:      err,
				Duration: time.Since(workerStart),
			}

			snap := target.Progress()

			if err != nil {
				s.logger.Error("device finished with error",
					zap.String("device", target.Disk.Path),
					zap.String("state", snap.State.String()),
					zap.Int("round", snap.Round),
					zap.Int("pass", snap.Pass),
					zap.Int64("bytes_written", snap.RunBytes),
					zap.Error(err),
				)
			} else {
				s.logger.Info("device finished",
					zap.String("device", target.Disk.Path),
					zap.String("state", snap.State.String()),
					zap.Int64("bytes_written", snap.RunBytes),
					zap.Int64("bytes_verified", snap.VerifiedBytes),
					zap.Duration("duration", results[i].Duration),
				)
			}
		}(i, target)
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(s.sampleInterval)
	defer ticker.Stop()

	for running := true; running; {
		select {
		case <-done:
			running = false
		case <-ticker.C:
			s.sample()
		}
	}

	s.report(results, time.Since(started))

	if s.plan.PowerOff {
		s.schedulePowerOff()
	}

	return results
}

// installSignals wires SIGINT/SIGTERM to cancellation and StatusSignal to a
// progress dump. The handlers only flip flags; no worker code runs in signal
// context.
func (s *Supervisor) installSignals(cancel context.CancelFunc) func() {
	cancelCh := make(chan os.Signal, 1)
	statusCh := make(chan os.Signal, 1)
	quit := make(chan struct{})

	signal.Notify(cancelCh, unix.SIGINT, unix.SIGTERM)
	signal.Notify(statusCh, StatusSignal)

	go func() {
		for {
			select {
			case sig := <-cancelCh:
				s.logger.Warn("cancellation requested", zap.String("signal", sig.String()))
				cancel()
			case <-statusCh:
				s.statusDump()
			case <-quit:
				return
			}
		}
	}()

	return func() {
		signal.Stop(cancelCh)
		signal.Stop(statusCh)
		close(quit)
	}
}

// sample refreshes the per-device throughput estimates.
func (s *Supervisor) sample() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	elapsed := now.Sub(s.lastAt).Seconds()
	if elapsed <= 0 {
		return
	}

	s.lastAt = now

	const smoothing = 0.25

	for _, target := range s.targets {
		snap := target.Progress()

		path := target.Disk.Path

		rate := float64(snap.RunBytes-s.lastSeen[path]) / elapsed
		s.lastSeen[path] = snap.RunBytes

		if prev, ok := s.rates[path]; ok {
			rate = smoothing*rate + (1-smoothing)*prev
		}

		s.rates[path] = rate
	}
}

// eta estimates the remaining time for a target, nil when unknown.
func (s *Supervisor) eta(target *Target, snap Snapshot) *time.Duration {
	s.mu.Lock()
	rate := s.rates[target.Disk.Path]
	s.mu.Unlock()

	if rate <= 0 || snap.State.Terminal() {
		return nil
	}

	remaining := s.plan.plannedBytes(int64(target.Disk.Size)) - snap.RunBytes
	if remaining <= 0 {
		return nil
	}

	return pointer.To(time.Duration(float64(remaining) / rate * float64(time.Second)))
}

// statusDump emits a snapshot of every worker to the log.
func (s *Supervisor) statusDump() {
	var aggregate float64

	for _, target := range s.targets {
		snap := target.Progress()

		s.mu.Lock()
		rate := s.rates[target.Disk.Path]
		s.mu.Unlock()

		if !snap.State.Terminal() {
			aggregate += rate
		}

		line := s.printer.Sprintf("%s: %s round %d pass %d/%d, %d bytes written, %.1f MiB/s",
			target.Disk.Path, snap.State, snap.Round, snap.Pass, snap.PassCount,
			snap.RunBytes, rate/(1024*1024))

		if eta := s.eta(target, snap); eta != nil {
			line += s.printer.Sprintf(", ETA %v", eta.Round(time.Second))
		}

		s.logger.Info(line)
	}

	s.logger.Info(s.printer.Sprintf("aggregate throughput: %.1f MiB/s across %d devices",
		aggregate/(1024*1024), len(s.targets)))
}

// report logs the aggregate summary after all workers are done.
func (s *Supervisor) report(results []Result, elapsed time.Duration) {
	var succeeded, failed, cancelled int

	var totalBytes int64

	for _, r := range results {
		snap := r.Target.Progress()
		totalBytes += snap.RunBytes

		switch snap.State {
		case StateSuccess:
			succeeded++
		case StateCancelled:
			cancelled++
		case StateFailed, StateIdle, StateRunning, StateBlanking:
			failed++
		}
	}

	s.logger.Info("run finished",
		zap.String("run_id", s.runID.String()),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("cancelled", cancelled),
		zap.String("bytes_written", s.printer.Sprintf("%d", totalBytes)),
		zap.Duration("elapsed", elapsed),
	)
}

// schedulePowerOff requests a host shutdown with a one-minute grace window,
// leaving the operator a chance to abort it.
func (s *Supervisor) schedulePowerOff() {
	s.logger.Info("powering off in one minute")

	if _, err := cmd.RunContext(context.Background(), "shutdown", "-h", "+1"); err != nil {
		s.logger.Error("failed to schedule power off", zap.Error(err))
	}
}

// ExitCode maps run outcomes to the process exit status: zero iff every
// selected device ended in success.
func ExitCode(results []Result) int {
	for _, r := range results {
		if r.Err != nil {
			return 1
		}
	}

	return 0
}
