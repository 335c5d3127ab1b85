// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/siderolabs/go-retry/retry"
	"go.uber.org/zap"

	"github.com/blockwipe/blockwipe/internal/ioutil"
	"github.com/blockwipe/blockwipe/prng"
)

// Device is the I/O surface the engine drives, satisfied by *block.Device.
type Device interface {
	io.ReaderAt
	io.WriterAt

	Size() int64
	SectorSize() uint
	Flush() error
	DropCaches() error
	Close() error
}

func newGenerator(name string) (prng.PRNG, error) {
	if name == "" {
		name = prng.DefaultName()
	}

	return prng.New(name)
}

// executor runs single passes over one open device.
//
// All writes within a pass are issued in strictly ascending offset order;
// verification reads likewise.
type executor struct {
	dev      Device
	plan     *Plan
	progress *Progress
	logger   *zap.Logger

	chunk  []byte
	expect []byte
}

func newExecutor(dev Device, plan *Plan, progress *Progress, logger *zap.Logger) *executor {
	sector := int(dev.SectorSize())

	chunkSize := plan.ChunkSize - plan.ChunkSize%sector
	if chunkSize < sector {
		chunkSize = sector
	}

	return &executor{
		dev:      dev,
		plan:     plan,
		progress: progress,
		logger:   logger,

		chunk:  make([]byte, chunkSize),
		expect: make([]byte, chunkSize),
	}
}

func (e *executor) source(pass Pass) (Source, error) {
	if pass.Stream() {
		gen, err := newGenerator(e.plan.PRNG)
		if err != nil {
			return nil, err
		}

		seed, err := prng.NewSeed(gen)
		if err != nil {
			return nil, err
		}

		return NewStreamSource(gen, seed), nil
	}

	return NewFixedSource(pass.Pattern)
}

// runPass writes one pass end-to-end and optionally verifies it.
// Verification-only passes skip the write.
func (e *executor) runPass(ctx context.Context, pass Pass, verify bool) error {
	src, err := e.source(pass)
	if err != nil {
		return err
	}

	if !pass.NoWrite {
		if err = e.writePass(ctx, src); err != nil {
			return err
		}
	}

	if verify || pass.NoWrite {
		src.Reset()

		if err = e.verifyPass(ctx, src); err != nil {
			return err
		}
	}

	return nil
}

func (e *executor) writePass(ctx context.Context, src Source) error {
	size := e.dev.Size()

	var (
		passErrors    int64
		writesToFlush int
	)

	for off := int64(0); off < size; {
		if ctx.Err() != nil {
			e.dev.Flush() //nolint:errcheck // best-effort on the way out

			return ErrCancelled
		}

		n := int64(len(e.chunk))
		if size-off < n {
			n = size - off
		}

		buf := e.chunk[:n]
		src.Fill(buf)

		failed := e.writeChunk(buf, off)
		passErrors += failed

		if passErrors > e.plan.MaxWriteErrors {
			return fmt.Errorf("%w: %d unrecoverable sector errors, last near offset %d", ErrWriteFailed, passErrors, off)
		}

		e.progress.addWritten(n)
		off += n

		writesToFlush++

		if e.plan.SyncRate > 0 && writesToFlush >= e.plan.SyncRate {
			if err := e.dev.Flush(); err != nil {
				return fmt.Errorf("%w: flush at offset %d: %v", ErrWriteFailed, off, err)
			}

			e.progress.touchSync()

			writesToFlush = 0
		}
	}

	if err := e.dev.Flush(); err != nil {
		return fmt.Errorf("%w: final flush: %v", ErrWriteFailed, err)
	}

	e.progress.touchSync()

	return nil
}

// writeChunk writes one chunk, degrading to sector-sized writes when the
// chunk write keeps failing. Returns the number of sectors skipped.
func (e *executor) writeChunk(buf []byte, off int64) int64 {
	err := retry.Constant(500*time.Millisecond, retry.WithUnits(50*time.Millisecond)).Retry(func() error {
		if werr := ioutil.WriteFullAt(e.dev, buf, off); werr != nil {
			return retry.ExpectedError(werr)
		}

		return nil
	})
	if err == nil {
		return 0
	}

	sector := int64(e.dev.SectorSize())

	var failed int64

	for so := int64(0); so < int64(len(buf)); so += sector {
		end := so + sector
		if end > int64(len(buf)) {
			end = int64(len(buf))
		}

		if werr := ioutil.WriteFullAt(e.dev, buf[so:end], off+so); werr != nil {
			failed++

			e.progress.addWriteError()
			e.logger.Warn("sector write failed, skipping",
				zap.Int64("offset", off+so),
				zap.Error(werr),
			)
		}
	}

	return failed
}

func (e *executor) verifyPass(ctx context.Context, src Source) error {
	// written data must be durable and reads must come from the media, not
	// the page cache
	if err := e.dev.DropCaches(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	size := e.dev.Size()
	sector := int64(e.dev.SectorSize())

	var passErrors int64

	for off := int64(0); off < size; {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		n := int64(len(e.chunk))
		if size-off < n {
			n = size - off
		}

		expect := e.expect[:n]
		src.Fill(expect)

		got := e.chunk[:n]

		badSectors := e.readChunk(got, off)

		for so := int64(0); so < n; so += sector {
			end := so + sector
			if end > n {
				end = n
			}

			if _, bad := badSectors[so]; bad {
				passErrors++

				continue
			}

			if !bytes.Equal(got[so:end], expect[so:end]) {
				passErrors++

				e.progress.addMismatch()
				e.logger.Warn("verification mismatch",
					zap.Int64("offset", off+so),
				)
			}
		}

		if passErrors > e.plan.MaxVerifyErrors {
			return fmt.Errorf("%w: %d sector errors, last near offset %d", ErrVerifyFailed, passErrors, off)
		}

		e.progress.addVerified(n)
		off += n
	}

	return nil
}

// readChunk reads one chunk, degrading to sector-sized reads when the chunk
// read keeps failing. Returns the chunk-relative offsets of unreadable
// sectors.
func (e *executor) readChunk(buf []byte, off int64) map[int64]struct{} {
	err := retry.Constant(500*time.Millisecond, retry.WithUnits(50*time.Millisecond)).Retry(func() error {
		if rerr := ioutil.ReadFullAt(e.dev, buf, off); rerr != nil {
			return retry.ExpectedError(rerr)
		}

		return nil
	})
	if err == nil {
		return nil
	}

	sector := int64(e.dev.SectorSize())

	bad := map[int64]struct{}{}

	for so := int64(0); so < int64(len(buf)); so += sector {
		end := so + sector
		if end > int64(len(buf)) {
			end = int64(len(buf))
		}

		if rerr := ioutil.ReadFullAt(e.dev, buf[so:end], off+so); rerr != nil {
			bad[so] = struct{}{}

			e.progress.addReadError()
			e.logger.Warn("sector read failed",
				zap.Int64("offset", off+so),
				zap.Error(rerr),
			)
		}
	}

	return bad
}
