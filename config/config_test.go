package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/rtfkit/recovery"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rtfkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.KeepTemp)
	assert.False(t, cfg.Strict)
	assert.Equal(t, int64(512*1024*1024), cfg.Limits.MaxObjectSize)
	assert.Equal(t, 1024, cfg.Limits.MaxObjects)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
temp_dir: /var/tmp/rtfkit
keep_temp: true
strict: true
logging:
  level: debug
limits:
  max_object_size: 1024
  max_objects: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/rtfkit", cfg.TempDir)
	assert.True(t, cfg.KeepTemp)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(1024), cfg.Limits.MaxObjectSize)
	assert.Equal(t, 4, cfg.Limits.MaxObjects)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "keep_temp: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.KeepTemp)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1024, cfg.Limits.MaxObjects)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "tempdir: oops\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestExtractorOptions(t *testing.T) {
	cfg := Default()
	cfg.Strict = true
	cfg.TempDir = "/srv/tmp"
	opts := cfg.ExtractorOptions(io.Discard)

	assert.Equal(t, "/srv/tmp", opts.TempDir)
	assert.IsType(t, &recovery.StrictStrategy{}, opts.Recovery)
	assert.NotNil(t, opts.Logger)
	assert.Equal(t, cfg.Limits.MaxObjectSize, opts.Limits.MaxObjectSize)

	cfg.Strict = false
	opts = cfg.ExtractorOptions(io.Discard)
	assert.Nil(t, opts.Recovery, "lenient default is installed per scan")
}
