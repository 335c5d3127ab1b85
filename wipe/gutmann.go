// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

// gutmannPasses is the 35-pass sequence from Peter Gutmann's "Secure Deletion
// of Data from Magnetic and Solid-State Memory" (1996), in the published
// order: four random passes, the 27 fixed patterns, four random passes.
var gutmannPasses = []Pass{
	{}, // 1
	{}, // 2
	{}, // 3
	{}, // 4
	{Pattern: []byte{0x55}},             // 5
	{Pattern: []byte{0xaa}},             // 6
	{Pattern: []byte{0x92, 0x49, 0x24}}, // 7
	{Pattern: []byte{0x49, 0x24, 0x92}}, // 8
	{Pattern: []byte{0x24, 0x92, 0x49}}, // 9
	{Pattern: []byte{0x00}},             // 10
	{Pattern: []byte{0x11}},             // 11
	{Pattern: []byte{0x22}},             // 12
	{Pattern: []byte{0x33}},             // 13
	{Pattern: []byte{0x44}},             // 14
	{Pattern: []byte{0x55}},             // 15
	{Pattern: []byte{0x66}},             // 16
	{Pattern: []byte{0x77}},             // 17
	{Pattern: []byte{0x88}},             // 18
	{Pattern: []byte{0x99}},             // 19
	{Pattern: []byte{0xaa}},             // 20
	{Pattern: []byte{0xbb}},             // 21
	{Pattern: []byte{0xcc}},             // 22
	{Pattern: []byte{0xdd}},             // 23
	{Pattern: []byte{0xee}},             // 24
	{Pattern: []byte{0xff}},             // 25
	{Pattern: []byte{0x92, 0x49, 0x24}}, // 26
	{Pattern: []byte{0x49, 0x24, 0x92}}, // 27
	{Pattern: []byte{0x24, 0x92, 0x49}}, // 28
	{Pattern: []byte{0x6d, 0xb6, 0xdb}}, // 29
	{Pattern: []byte{0xb6, 0xdb, 0x6d}}, // 30
	{Pattern: []byte{0xdb, 0x6d, 0xb6}}, // 31
	{}, // 32
	{}, // 33
	{}, // 34
	{}, // 35
}
