package param

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/go-sysup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{
			name:   "default",
			layout: DefaultLayout(),
		},
		{
			name:   "update before result",
			layout: NewLayout(512, 0),
		},
		{
			name:    "empty",
			layout:  Layout{},
			wantErr: true,
		},
		{
			name:    "overlap",
			layout:  NewLayout(0, 7199),
			wantErr: true,
		},
		{
			name:   "adjacent",
			layout: NewLayout(0, 7200),
		},
		{
			name:    "negative offset",
			layout:  NewLayout(-1, 8192),
			wantErr: true,
		},
		{
			name:    "zero size",
			layout:  Layout{0: {Offset: 0, Size: 0}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	_, err := Open("", DefaultLayout())
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "param.bin"), NewLayout(0, 100))
	assert.Error(t, err)
}

func TestFileStoreSetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "param.bin")
	store, err := Open(path, DefaultLayout())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())

	result := bytes.Repeat([]byte{0xAB}, types.ExtentMapPayloadSize)
	flag := []byte{0x63, 0x77, 0, 0}

	require.NoError(t, store.Set(types.ParamIndexFiemapResult, result))
	require.NoError(t, store.Set(types.ParamIndexFiemapUpdate, flag))

	got, err := store.Get(types.ParamIndexFiemapResult)
	require.NoError(t, err)
	assert.Equal(t, result, got)

	got, err = store.Get(types.ParamIndexFiemapUpdate)
	require.NoError(t, err)
	assert.Equal(t, flag, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultUpdateOffset+types.UpdateFlagSize), info.Size())

	// Bytes between the slots are untouched.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for i := types.ExtentMapPayloadSize; i < DefaultUpdateOffset; i++ {
		if raw[i] != 0 {
			t.Fatalf("gap byte %d = 0x%X, want 0", i, raw[i])
		}
	}
}

func TestFileStoreOverwritePreservesOtherSlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "param.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x11}, 16384), 0o600))

	store, err := Open(path, DefaultLayout())
	require.NoError(t, err)

	require.NoError(t, store.Set(types.ParamIndexFiemapUpdate, []byte{1, 2, 3, 4}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, 16384, "writes must not truncate the backing file")
	assert.Equal(t, []byte{1, 2, 3, 4}, raw[DefaultUpdateOffset:DefaultUpdateOffset+4])
	assert.Equal(t, byte(0x11), raw[0])
	assert.Equal(t, byte(0x11), raw[DefaultUpdateOffset+4])
}

func TestFileStoreErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "param.bin")
	store, err := Open(path, DefaultLayout())
	require.NoError(t, err)

	t.Run("wrong size", func(t *testing.T) {
		assert.Error(t, store.Set(types.ParamIndexFiemapUpdate, []byte{1, 2}))
	})

	t.Run("unknown index", func(t *testing.T) {
		assert.Error(t, store.Set(42, []byte{1}))
		_, err := store.Get(42)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Get(types.ParamIndexFiemapResult)
		assert.Error(t, err)
	})

	t.Run("short file", func(t *testing.T) {
		require.NoError(t, store.Set(types.ParamIndexFiemapResult, make([]byte, types.ExtentMapPayloadSize)))
		_, err := store.Get(types.ParamIndexFiemapUpdate)
		assert.Error(t, err)
	})
}
