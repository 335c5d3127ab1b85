// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"fmt"
	"io"
	"sort"
)

// Pass is an immutable descriptor of one device traversal.
type Pass struct {
	// Pattern is the fixed byte sequence tiled across the device; nil means
	// a PRNG stream seeded fresh for the pass.
	Pattern []byte

	// Blank marks the final zero-fill pass appended after the last round.
	Blank bool

	// NoWrite marks a verification-only pass: nothing is written, the device
	// is asserted to already contain Pattern.
	NoWrite bool
}

// Stream reports whether the pass writes a PRNG stream.
func (p Pass) Stream() bool {
	return p.Pattern == nil
}

// Method is a named, ordered sequence of pass descriptors.
type Method struct {
	name  string
	label string

	// forceVerifyFinalStream verifies the method's final PRNG pass even when
	// the operator sets the verify policy to none.
	forceVerifyFinalStream bool

	verifyOnly bool

	passCount int

	build func(entropy io.Reader) ([]Pass, error)
}

// Name returns the method's CLI name.
func (m *Method) Name() string { return m.name }

// Label returns the method's human-readable description.
func (m *Method) Label() string { return m.label }

// PassCount returns the number of passes in one round.
func (m *Method) PassCount() int { return m.passCount }

// VerifyOnly reports whether the method only reads the device.
func (m *Method) VerifyOnly() bool { return m.verifyOnly }

// ForceVerifyFinalStream reports whether the method's final PRNG pass is
// verified regardless of the verify policy.
func (m *Method) ForceVerifyFinalStream() bool { return m.forceVerifyFinalStream }

// Passes expands the descriptor table for one round. Methods built around a
// random byte and its complement draw the byte fresh from entropy, so each
// round (and each device) gets its own.
func (m *Method) Passes(entropy io.Reader) ([]Pass, error) {
	return m.build(entropy)
}

func constant(passes ...Pass) func(io.Reader) ([]Pass, error) {
	return func(io.Reader) ([]Pass, error) {
		return passes, nil
	}
}

func randByte(entropy io.Reader) (byte, error) {
	var b [1]byte

	if _, err := io.ReadFull(entropy, b[:]); err != nil {
		return 0, fmt.Errorf("failed to draw random pattern byte: %w", err)
	}

	return b[0], nil
}

var methods = map[string]*Method{
	"zero": {
		name:      "zero",
		label:     "Fill With Zeros",
		passCount: 1,
		build:     constant(Pass{Pattern: []byte{0x00}}),
	},
	"one": {
		name:      "one",
		label:     "Fill With Ones",
		passCount: 1,
		build:     constant(Pass{Pattern: []byte{0xff}}),
	},
	"random": {
		name:      "random",
		label:     "PRNG Stream",
		passCount: 1,
		build:     constant(Pass{}),
	},
	"verify_zero": {
		name:       "verify_zero",
		label:      "Verify Zeros",
		verifyOnly: true,
		passCount:  1,
		build:      constant(Pass{Pattern: []byte{0x00}, NoWrite: true}),
	},
	"verify_one": {
		name:       "verify_one",
		label:      "Verify Ones",
		verifyOnly: true,
		passCount:  1,
		build:      constant(Pass{Pattern: []byte{0xff}, NoWrite: true}),
	},
	"dodshort": {
		name:      "dodshort",
		label:     "DoD Short",
		passCount: 3,
		build: func(entropy io.Reader) ([]Pass, error) {
			r, err := randByte(entropy)
			if err != nil {
				return nil, err
			}

			return []Pass{
				{Pattern: []byte{r}},
				{Pattern: []byte{^r}},
				{},
			}, nil
		},
	},
	"dod522022m": {
		name:      "dod522022m",
		label:     "DoD 5220.22-M",
		passCount: 7,
		build: func(entropy io.Reader) ([]Pass, error) {
			r1, err := randByte(entropy)
			if err != nil {
				return nil, err
			}

			r2, err := randByte(entropy)
			if err != nil {
				return nil, err
			}

			return []Pass{
				{Pattern: []byte{r1}},
				{Pattern: []byte{^r1}},
				{},
				{Pattern: []byte{0x00}},
				{Pattern: []byte{r2}},
				{Pattern: []byte{^r2}},
				{},
			}, nil
		},
	},
	"ops2": {
		name:                   "ops2",
		label:                  "RCMP TSSIT OPS-II",
		forceVerifyFinalStream: true,
		passCount:              8,
		build: func(entropy io.Reader) ([]Pass, error) {
			r, err := randByte(entropy)
			if err != nil {
				return nil, err
			}

			passes := make([]Pass, 0, 8)

			for i := 0; i < 7; i++ {
				b := r
				if i%2 == 1 {
					b = ^r
				}

				passes = append(passes, Pass{Pattern: []byte{b}})
			}

			return append(passes, Pass{}), nil
		},
	},
	"is5enh": {
		name:                   "is5enh",
		label:                  "HMG IS5 Enhanced",
		forceVerifyFinalStream: true,
		passCount:              3,
		build: constant(
			Pass{Pattern: []byte{0x00}},
			Pass{Pattern: []byte{0xff}},
			Pass{},
		),
	},
	"gutmann": {
		name:      "gutmann",
		label:     "Gutmann Wipe",
		passCount: len(gutmannPasses),
		build: func(io.Reader) ([]Pass, error) {
			return gutmannPasses, nil
		},
	},
}

var methodAliases = map[string]string{
	"dod3pass": "dodshort",
	"dod":      "dod522022m",
	"prng":     "random",
	"stream":   "random",
}

// LookupMethod returns a method by name (canonical or alias).
func LookupMethod(name string) (*Method, error) {
	if canonical, ok := methodAliases[name]; ok {
		name = canonical
	}

	m, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", ErrConfigInvalid, name)
	}

	return m, nil
}

// MethodNames returns the canonical method names, sorted.
func MethodNames() []string {
	names := make([]string, 0, len(methods))

	for name := range methods {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// BlankPass is the zero-fill pass appended after the final round unless the
// operator disables blanking. It is never verified.
var BlankPass = Pass{Pattern: []byte{0x00}, Blank: true}
