// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package wipe

import (
	"fmt"
	"strings"

	"github.com/siderolabs/gen/xslices"

	"github.com/blockwipe/blockwipe/block"
)

const (
	// MaxExcludeEntries bounds the exclusion list.
	MaxExcludeEntries = 10

	maxExcludeTokenLen = 256
)

// ParseExcludeList parses a comma-separated device exclusion list. An
// optional leading '=' is stripped, empty tokens are dropped, and both the
// number of entries and the length of each entry are bounded.
func ParseExcludeList(s string) ([]string, error) {
	s = strings.TrimPrefix(s, "=")

	if s == "" {
		return nil, nil
	}

	tokens := strings.Split(s, ",")
	if len(tokens) > MaxExcludeEntries {
		return nil, fmt.Errorf("%w: exclude list has %d entries, maximum is %d", ErrConfigInvalid, len(tokens), MaxExcludeEntries)
	}

	var out []string

	for _, token := range tokens {
		token = strings.TrimSpace(token)

		if token == "" {
			continue
		}

		if len(token) > maxExcludeTokenLen {
			return nil, fmt.Errorf("%w: exclude entry longer than %d characters", ErrConfigInvalid, maxExcludeTokenLen)
		}

		out = append(out, token)
	}

	return out, nil
}

// Select filters enumerated disks down to wipe candidates: excluded paths
// are dropped by exact match, and USB-attached disks are dropped when noUSB
// is set. Order is preserved, the input slice is not modified.
func Select(disks []*block.Disk, exclude []string, noUSB bool) []*block.Disk {
	excluded := xslices.ToSet(exclude)

	return xslices.Filter(disks, func(disk *block.Disk) bool {
		if _, skip := excluded[disk.Path]; skip {
			return false
		}

		if noUSB && disk.USB {
			return false
		}

		return true
	})
}
