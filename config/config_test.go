package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen.Addr)
	assert.Equal(t, "production", cfg.Manifest.Catalog)
	assert.Equal(t, "manifests", cfg.Manifest.Folder)
	assert.Equal(t, "site_default", cfg.Manifest.DefaultIncluded)
	assert.Equal(t, "info", cfg.Log.Level)

	// Nothing configured means every branch is disabled, not an error.
	assert.False(t, cfg.Manifest.Enabled())
	assert.False(t, cfg.Directory.Enabled())
	assert.False(t, cfg.Notify.Enabled())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
manifest:
  bucket: munki-repo
  region: us-east-1
  catalog: testing
directory:
  base_url: https://mdm.example.com/api/v1
  api_key: secret
notify:
  url: https://chat.example.com/hook
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Manifest.Enabled())
	assert.True(t, cfg.Directory.Enabled())
	assert.True(t, cfg.Notify.Enabled())
	assert.Equal(t, "testing", cfg.Manifest.Catalog)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
manifest:
  catalog: from-file
`)
	t.Setenv("MDMHOOK_CATALOG", "from-env")
	t.Setenv("MDMHOOK_NOTIFY_URL", "https://chat.example.com/hook")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Manifest.Catalog)
	assert.True(t, cfg.Notify.Enabled())
}

func TestFolderIsTrimmed(t *testing.T) {
	t.Setenv("MDMHOOK_MANIFEST_FOLDER", "/manifests/")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "manifests", cfg.Manifest.Folder)
}

func TestValidateDirectoryNeedsBaseURL(t *testing.T) {
	path := writeConfig(t, `
directory:
  api_key: secret
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateBucketNeedsRegion(t *testing.T) {
	path := writeConfig(t, `
manifest:
  bucket: munki-repo
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "listen: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}
