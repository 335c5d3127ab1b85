// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package block

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	glob "github.com/ryanuber/go-glob"
)

// Type is the disk type: HDD, SSD, SD card, NVMe drive, loop device.
type Type int

const (
	// TypeUnknown is set when the disk type couldn't be detected.
	TypeUnknown Type = iota
	// TypeSSD SATA SSD disk.
	TypeSSD
	// TypeHDD rotational disk.
	TypeHDD
	// TypeNVMe NVMe disk.
	TypeNVMe
	// TypeSD SD card.
	TypeSD
	// TypeLoop loopback device.
	TypeLoop
)

func (t Type) String() string {
	//nolint:exhaustive
	switch t {
	case TypeSSD:
		return "ssd"
	case TypeHDD:
		return "hdd"
	case TypeNVMe:
		return "nvme"
	case TypeSD:
		return "sd"
	case TypeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Disk represents disk information obtained by reading /sys/block.
//
//nolint:govet
type Disk struct {
	// Path device path (e.g. /dev/sda).
	Path string
	// Size disk size in bytes.
	Size uint64
	// SectorSize logical sector size in bytes.
	SectorSize uint
	// Model from /sys/block/*/device/model.
	Model string
	// Serial /sys/block/<dev>/device/serial.
	Serial string
	// WWID /sys/block/<dev>/wwid.
	WWID string
	// Type is the disk type: HDD, SSD, SD card, NVMe drive, loop.
	Type Type
	// BusPath physical bus path.
	BusPath string
	// USB indicates the disk hangs off a USB bus.
	USB bool
	// ReadOnly indicates that the kernel has marked this disk as read-only.
	ReadOnly bool
}

// List returns the wipe candidates found under /sys/block.
func List() ([]*Disk, error) {
	disks := []*Disk{}

	devices, err := os.ReadDir("/sys/block")
	if err != nil {
		return nil, fmt.Errorf("failed to read /sys/block directory: %w", err)
	}

	for _, dev := range devices {
		deviceName := filepath.Base(dev.Name())

		skip := false

		for _, prefix := range []string{"sg", "sr", "md", "dm-", "ram", "zram"} {
			if strings.HasPrefix(deviceName, prefix) {
				skip = true

				break
			}
		}

		if skip {
			continue
		}

		disk := Get(deviceName)
		if disk.Size == 0 {
			continue
		}

		disks = append(disks, disk)
	}

	return disks, nil
}

// Get gathers disk information from /sys/block for a device name or path.
func Get(dev string) *Disk {
	sysblock := "/sys/block"

	dev = filepath.Base(dev)

	fullPath, _ := os.Readlink(filepath.Join(sysblock, dev)) //nolint:errcheck

	busPath := strings.TrimPrefix(fullPath, "../devices")
	busPath = strings.TrimSuffix(busPath, filepath.Join("block", dev))

	readFile := func(parts ...string) string {
		path := filepath.Join(parts...)

		f, e := os.Open(path)
		if e != nil {
			return ""
		}

		defer f.Close() //nolint:errcheck

		data, e := io.ReadAll(f)
		if e != nil {
			return ""
		}

		return strings.TrimSpace(string(data))
	}

	sectorSize := uint(DefaultBlockSize)

	if s := readFile(sysblock, dev, "queue/logical_block_size"); s != "" {
		if parsed, err := strconv.ParseUint(s, 10, 32); err == nil && parsed > 0 {
			sectorSize = uint(parsed)
		}
	}

	var size uint64

	if s := readFile(sysblock, dev, "size"); s != "" {
		size, _ = strconv.ParseUint(s, 10, 64) //nolint:errcheck
		size *= uint64(sectorSize)
	}

	diskType := TypeUnknown
	rotational := readFile(sysblock, dev, "queue/rotational")

	switch {
	case strings.HasPrefix(dev, "loop"):
		diskType = TypeLoop
	case strings.Contains(dev, "nvme"):
		diskType = TypeNVMe
	case strings.Contains(dev, "mmc"):
		diskType = TypeSD
	case rotational == "1":
		diskType = TypeHDD
	case rotational == "0":
		diskType = TypeSSD
	}

	wwid := readFile(sysblock, dev, "wwid")
	if wwid == "" {
		wwid = readFile(sysblock, dev, "device/wwid")
	}

	serial := readFile(sysblock, dev, "serial")
	if serial == "" {
		serial = readFile(sysblock, dev, "device/serial")
	}

	return &Disk{
		Path:       fmt.Sprintf("/dev/%s", dev),
		Size:       size,
		SectorSize: sectorSize,
		Model:      readFile(sysblock, dev, "device/model"),
		Serial:     serial,
		WWID:       wwid,
		Type:       diskType,
		BusPath:    busPath,
		USB:        strings.Contains(busPath, "/usb"),
		ReadOnly:   readFile(sysblock, dev, "ro") == "1",
	}
}

// Matcher is a function that can handle some custom disk matching logic.
type Matcher func(disk *Disk) bool

// WithType selects disks of the given type.
func WithType(t Type) Matcher {
	return func(d *Disk) bool {
		return d.Type == t
	}
}

// WithModel selects disks by model, with wildcards.
func WithModel(model string) Matcher {
	return func(d *Disk) bool {
		return glob.Glob(model, d.Model)
	}
}

// WithSerial selects disks by serial, with wildcards.
func WithSerial(serial string) Matcher {
	return func(d *Disk) bool {
		return glob.Glob(serial, d.Serial)
	}
}

// WithWWID selects disks by WWID, with wildcards.
func WithWWID(wwid string) Matcher {
	return func(d *Disk) bool {
		return glob.Glob(wwid, d.WWID)
	}
}

// WithBusPath selects disks by bus path, with wildcards.
func WithBusPath(path string) Matcher {
	return func(d *Disk) bool {
		return glob.Glob(path, d.BusPath)
	}
}

// Match checks if the disk matches all of the matchers.
func Match(disk *Disk, matchers ...Matcher) bool {
	for _, match := range matchers {
		if !match(disk) {
			return false
		}
	}

	return true
}
