// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package block provides access to the raw block devices being erased.
package block

import "os"

// DefaultBlockSize is the fallback logical sector size in bytes.
const DefaultBlockSize = 512

// Device is an open handle to a block device (or a regular file standing in
// for one, e.g. in tests).
//
// All I/O is positional; Device implements io.ReaderAt and io.WriterAt.
type Device struct {
	f *os.File

	path string

	size       int64
	sectorSize uint

	locked bool
}

// Path returns the path the device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Size returns the device length in bytes.
func (d *Device) Size() int64 {
	return d.size
}

// SectorSize returns the logical sector size in bytes.
func (d *Device) SectorSize() uint {
	return d.sectorSize
}

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	return d.f.WriteAt(p, off)
}

// OpenOptions configure Open.
type OpenOptions struct {
	// ReadOnly opens the device without write access (verification-only
	// methods).
	ReadOnly bool

	// LockTimeout bounds how long Open waits for the exclusive lock.
	LockTimeout int // seconds
}

// OpenOption is an option for Open.
type OpenOption func(*OpenOptions)

// WithReadOnly opens the device for reading only.
func WithReadOnly() OpenOption {
	return func(o *OpenOptions) {
		o.ReadOnly = true
	}
}

// WithLockTimeout overrides the exclusive-lock wait, in seconds.
func WithLockTimeout(seconds int) OpenOption {
	return func(o *OpenOptions) {
		o.LockTimeout = seconds
	}
}

func applyOpenOptions(opts ...OpenOption) OpenOptions {
	o := OpenOptions{
		LockTimeout: 5,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
