// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockwipe/blockwipe/block"
)

func TestMatchers(t *testing.T) {
	disk := &block.Disk{
		Path:    "/dev/sdb",
		Model:   "Samsung SSD 870",
		Serial:  "S62ANX0T123456",
		WWID:    "naa.5002538f33400a6b",
		Type:    block.TypeSSD,
		BusPath: "/pci0000:00/0000:00:17.0/ata3/host2",
	}

	assert.True(t, block.Match(disk, block.WithType(block.TypeSSD)))
	assert.False(t, block.Match(disk, block.WithType(block.TypeHDD)))

	assert.True(t, block.Match(disk, block.WithModel("Samsung*")))
	assert.True(t, block.Match(disk, block.WithSerial("S62ANX0T*")))
	assert.True(t, block.Match(disk, block.WithWWID("naa.*")))
	assert.True(t, block.Match(disk, block.WithBusPath("*ata3*")))

	assert.False(t, block.Match(disk,
		block.WithModel("Samsung*"),
		block.WithSerial("WD-*"),
	))
}

func TestTypeString(t *testing.T) {
	for typ, expected := range map[block.Type]string{
		block.TypeUnknown: "unknown",
		block.TypeSSD:     "ssd",
		block.TypeHDD:     "hdd",
		block.TypeNVMe:    "nvme",
		block.TypeSD:      "sd",
		block.TypeLoop:    "loop",
	} {
		assert.Equal(t, expected, typ.String())
	}
}
