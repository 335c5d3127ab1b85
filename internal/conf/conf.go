// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package conf is the persistent settings store: a small YAML file addressed
// by dotted key paths. The engine only reads a couple of reporting toggles
// from it, but the store is generic.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Values recognised by the enable/disable toggles.
const (
	Enabled  = "ENABLED"
	Disabled = "DISABLED"
)

// Dotted key paths the engine reads.
const (
	KeyPDFEnable  = "PDF_Certificate.PDF_Enable"
	KeyPDFPreview = "PDF_Certificate.PDF_Preview"
)

// ErrNotFound is returned by Get for keys absent from both the file and the
// defaults.
var ErrNotFound = errors.New("setting not found")

// Settings is a mutable view over one settings file.
type Settings struct {
	mu sync.Mutex

	path   string
	values map[string]any
}

func defaults() map[string]any {
	return map[string]any{
		"PDF_Certificate": map[string]any{
			"PDF_Enable":  Enabled,
			"PDF_Preview": Disabled,
		},
	}
}

// Load reads the settings file, layering it over the defaults. A missing
// file is not an error: the defaults apply and the file is created on the
// first Save.
func Load(path string) (*Settings, error) {
	s := &Settings{
		path:   path,
		values: defaults(),
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("reading settings %q: %w", path, err)
	}

	var loaded map[string]any

	if err = yaml.Unmarshal(contents, &loaded); err != nil {
		return nil, fmt.Errorf("parsing settings %q: %w", path, err)
	}

	merge(s.values, loaded)

	return s, nil
}

// merge overlays src onto dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				merge(dstMap, srcMap)

				continue
			}
		}

		dst[k] = v
	}
}

// Get returns the string value at a dotted key path.
func (s *Settings) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.values

	parts := strings.Split(key, ".")

	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrNotFound, key)
		}

		node = next
	}

	value, ok := node[parts[len(parts)-1]]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	return fmt.Sprintf("%v", value), nil
}

// Set stores the string value at a dotted key path, creating intermediate
// sections as needed. The change is in-memory until Save.
func (s *Settings) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.values

	parts := strings.Split(key, ".")

	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}

		node = next
	}

	node[parts[len(parts)-1]] = value
}

// Save writes the settings back to the file, creating parent directories as
// needed.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	if err = os.WriteFile(s.path, contents, 0o644); err != nil {
		return fmt.Errorf("writing settings %q: %w", s.path, err)
	}

	return nil
}
