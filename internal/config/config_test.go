package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-sysup/internal/param"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, uint64(0), config.Version)
	assert.Equal(t, "/var/lib/sysup/param.bin", config.Param.Path)
	assert.Equal(t, int64(0), config.Param.ResultOffset)
	assert.Equal(t, int64(param.DefaultUpdateOffset), config.Param.UpdateOffset)
	assert.Equal(t, "/run/sysup/sec_sysup", config.Attr.Mountpoint)
	assert.False(t, config.Attr.AllowOther)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysup.yaml")
	content := `
log_level: debug
version: 42
param:
  path: /dev/block/by-name/param
  result_offset: 1048576
  update_offset: 1056768
attr:
  allow_other: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, uint64(42), config.Version)
	assert.Equal(t, "/dev/block/by-name/param", config.Param.Path)
	assert.Equal(t, int64(1048576), config.Param.ResultOffset)
	assert.True(t, config.Attr.AllowOther)

	layout := config.Param.Layout()
	assert.Equal(t, param.Slot{Offset: 1048576, Size: types.ExtentMapPayloadSize}, layout[types.ParamIndexFiemapResult])
	assert.Equal(t, param.Slot{Offset: 1056768, Size: types.UpdateFlagSize}, layout[types.ParamIndexFiemapUpdate])
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SYSUP_VERSION", "7")
	t.Setenv("SYSUP_PARAM_PATH", "/tmp/param.bin")

	config, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), config.Version)
	assert.Equal(t, "/tmp/param.bin", config.Param.Path)
}

func TestLoadErrors(t *testing.T) {
	t.Run("named file missing", func(t *testing.T) {
		_, err := Load(New(filepath.Join(t.TempDir(), "absent.yaml")))
		assert.Error(t, err)
	})

	t.Run("overlapping slots", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sysup.yaml")
		require.NoError(t, os.WriteFile(path, []byte("param:\n  update_offset: 16\n"), 0o600))
		_, err := Load(New(path))
		assert.Error(t, err)
	})
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
