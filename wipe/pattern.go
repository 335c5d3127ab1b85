// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"fmt"

	"github.com/blockwipe/blockwipe/prng"
)

// MaxPatternLength bounds fixed byte patterns.
const MaxPatternLength = 16

// Source produces the byte stream of one pass.
//
// Fill is called with strictly sequential, contiguous buffers from device
// offset 0 onwards. Reset rewinds the source to offset 0; for PRNG streams it
// reseeds with the pass seed, which is how verification replays the pass.
type Source interface {
	Fill(p []byte)
	Reset()
}

type fixedSource struct {
	pattern []byte
	off     int64
}

// NewFixedSource returns a Source tiling the pattern across the device, so
// that the byte at device offset o is pattern[o mod len(pattern)].
func NewFixedSource(pattern []byte) (Source, error) {
	if len(pattern) == 0 || len(pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: fixed pattern must be 1-%d bytes, got %d", ErrConfigInvalid, MaxPatternLength, len(pattern))
	}

	src := &fixedSource{}
	src.pattern = append(src.pattern, pattern...)

	return src, nil
}

func (s *fixedSource) Fill(p []byte) {
	if len(p) == 0 {
		return
	}

	k := int64(len(s.pattern))

	// seed the head with the correct alignment, then double it up
	n := len(p)
	if n > len(s.pattern) {
		n = len(s.pattern)
	}

	for i := 0; i < n; i++ {
		p[i] = s.pattern[(s.off+int64(i))%k]
	}

	for n < len(p) {
		n += copy(p[n:], p[:n])
	}

	s.off += int64(len(p))
}

func (s *fixedSource) Reset() {
	s.off = 0
}

type streamSource struct {
	gen  prng.PRNG
	seed []byte
}

// NewStreamSource returns a Source drawing from the generator seeded with
// seed. The same generator/seed pair replays the identical stream.
func NewStreamSource(gen prng.PRNG, seed []byte) Source {
	src := &streamSource{
		gen:  gen,
		seed: append([]byte(nil), seed...),
	}

	src.Reset()

	return src
}

func (s *streamSource) Fill(p []byte) {
	s.gen.Fill(p)
}

func (s *streamSource) Reset() {
	s.gen.Seed(s.seed)
}
