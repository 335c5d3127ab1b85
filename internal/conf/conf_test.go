// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package conf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockwipe/blockwipe/internal/conf"
)

func TestDefaults(t *testing.T) {
	settings, err := conf.Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	enable, err := settings.Get(conf.KeyPDFEnable)
	require.NoError(t, err)
	assert.Equal(t, conf.Enabled, enable)

	preview, err := settings.Get(conf.KeyPDFPreview)
	require.NoError(t, err)
	assert.Equal(t, conf.Disabled, preview)

	_, err = settings.Get("No.Such.Key")
	assert.ErrorIs(t, err, conf.ErrNotFound)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	settings, err := conf.Load(path)
	require.NoError(t, err)

	settings.Set(conf.KeyPDFEnable, conf.Disabled)
	settings.Set("Organisation.Name", "ACME")

	require.NoError(t, settings.Save())

	reloaded, err := conf.Load(path)
	require.NoError(t, err)

	enable, err := reloaded.Get(conf.KeyPDFEnable)
	require.NoError(t, err)
	assert.Equal(t, conf.Disabled, enable)

	// untouched keys keep their defaults
	preview, err := reloaded.Get(conf.KeyPDFPreview)
	require.NoError(t, err)
	assert.Equal(t, conf.Disabled, preview)

	name, err := reloaded.Get("Organisation.Name")
	require.NoError(t, err)
	assert.Equal(t, "ACME", name)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, os.WriteFile(path, []byte("PDF_Certificate:\n  PDF_Preview: ENABLED\n"), 0o644))

	settings, err := conf.Load(path)
	require.NoError(t, err)

	preview, err := settings.Get(conf.KeyPDFPreview)
	require.NoError(t, err)
	assert.Equal(t, conf.Enabled, preview)

	enable, err := settings.Get(conf.KeyPDFEnable)
	require.NoError(t, err)
	assert.Equal(t, conf.Enabled, enable)
}
