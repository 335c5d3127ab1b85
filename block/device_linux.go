// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build linux

package block

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"

	"github.com/siderolabs/go-retry/retry"
	"golang.org/x/sys/unix"
)

// Open opens a block device (or a regular file backing one) for erasure.
//
// Block devices are locked exclusively via flock; a second Open of the same
// device fails once the lock wait is exhausted.
func Open(path string, opts ...OpenOption) (*Device, error) {
	options := applyOpenOptions(opts...)

	flags := os.O_RDWR | unix.O_CLOEXEC
	if options.ReadOnly {
		flags = os.O_RDONLY | unix.O_CLOEXEC
	}

	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, err
	}

	d := &Device{
		f:    f,
		path: path,
	}

	if err = d.setup(options); err != nil {
		f.Close() //nolint:errcheck

		return nil, err
	}

	return d, nil
}

func (d *Device) setup(options OpenOptions) error {
	st, err := d.f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", d.path, err)
	}

	sysStat, ok := st.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("unexpected stat type for %s", d.path)
	}

	switch sysStat.Mode & unix.S_IFMT {
	case unix.S_IFBLK:
		var devsize uint64

		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&devsize))); errno != 0 {
			return fmt.Errorf("failed to query size of %s: %w", d.path, errno)
		}

		d.size = int64(devsize)
		d.sectorSize = d.querySectorSize()

		if err = d.lock(time.Duration(options.LockTimeout) * time.Second); err != nil {
			return fmt.Errorf("failed to lock %s exclusively: %w", d.path, err)
		}

		d.locked = true
	case unix.S_IFREG:
		// a file-backed image, e.g. in tests
		d.size = st.Size()
		d.sectorSize = DefaultBlockSize
	default:
		return fmt.Errorf("unsupported file type for %s: %s", d.path, st.Mode().Type())
	}

	return nil
}

func (d *Device) querySectorSize() uint {
	var size uint

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(unix.BLKSSZGET), uintptr(unsafe.Pointer(&size))); errno != 0 {
		return DefaultBlockSize
	}

	return size
}

func (d *Device) lock(timeout time.Duration) error {
	return retry.Constant(timeout, retry.WithUnits(100*time.Millisecond)).Retry(func() error {
		for {
			err := unix.Flock(int(d.f.Fd()), unix.LOCK_EX|unix.LOCK_NB)

			if errors.Is(err, unix.EINTR) {
				continue
			}

			if errors.Is(err, unix.EWOULDBLOCK) {
				return retry.ExpectedError(err)
			}

			return err
		}
	})
}

// Flush forces written data down to the device.
func (d *Device) Flush() error {
	for {
		if err := unix.Fdatasync(int(d.f.Fd())); !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// DropCaches invalidates cached pages so that subsequent reads reflect the
// durable state of the media. Best effort on regular files.
func (d *Device) DropCaches() error {
	if err := d.Flush(); err != nil {
		return err
	}

	// flush the block device buffers; ENOTTY for regular files
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), unix.BLKFLSBUF, 0); errno != 0 && errno != unix.ENOTTY {
		return fmt.Errorf("failed to flush buffers of %s: %w", d.path, errno)
	}

	unix.Fadvise(int(d.f.Fd()), 0, 0, unix.FADV_DONTNEED) //nolint:errcheck // best-effort

	return nil
}

// Close releases the lock and closes the device.
func (d *Device) Close() error {
	if d.locked {
		d.locked = false

		for {
			if err := unix.Flock(int(d.f.Fd()), unix.LOCK_UN); !errors.Is(err, unix.EINTR) {
				break
			}
		}
	}

	return d.f.Close()
}
