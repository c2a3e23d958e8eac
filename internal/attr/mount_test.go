package attr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-sysup/internal/logging"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

type recordingUpdater struct {
	payloads [][]byte
	err      error
}

func (u *recordingUpdater) Store(payload []byte) (int, error) {
	u.payloads = append(u.payloads, append([]byte(nil), payload...))
	if u.err != nil {
		return 0, u.err
	}
	return len(payload), nil
}

func testOptions(updater Updater, version uint64) *Options {
	options := &Options{
		Mountpoint: "unused",
		Updater:    updater,
		Version:    func() uint64 { return version },
		Logger:     logging.Discard(),
	}
	options.setDefaults()
	return options
}

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testMount(t *testing.T, updater Updater, version uint64) string {
	t.Helper()
	fuseAvailable(t)

	mountpoint := filepath.Join(t.TempDir(), "sec_sysup")
	server, err := Mount(Options{
		Mountpoint: mountpoint,
		Updater:    updater,
		Version:    func() uint64 { return version },
		Logger:     logging.Discard(),
	})
	if err != nil {
		t.Skipf("skipping: mount failed: %v", err)
	}

	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})
	return mountpoint
}

func TestMountRequiresOptions(t *testing.T) {
	_, err := Mount(Options{Updater: &recordingUpdater{}})
	assert.Error(t, err)

	_, err = Mount(Options{Mountpoint: t.TempDir()})
	assert.Error(t, err)
}

func TestUpdateHandleWrite(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantN     uint32
		wantErrno syscall.Errno
	}{
		{"accepted", nil, 2, 0},
		{"invalid trigger", sysup.Errorf(sysup.KindRequestInvalid, "parse trigger", "bad"), 0, syscall.EINVAL},
		{"missing image", sysup.Errorf(sysup.KindNotFound, "open", "gone"), 0, syscall.ENOENT},
		{"no extents", sysup.Errorf(sysup.KindNoExtentsMapped, "query", "empty"), 0, syscall.EFAULT},
		{"unclassified", errors.New("boom"), 0, syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater := &recordingUpdater{err: tt.err}
			handle := &updateHandle{options: testOptions(updater, 0)}

			n, errno := handle.Write(context.Background(), []byte("1\n"), 0)
			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.wantErrno, errno)
			require.Len(t, updater.payloads, 1)
			assert.Equal(t, []byte("1\n"), updater.payloads[0])
		})
	}
}

func TestUpdateNodeOpen(t *testing.T) {
	node := &updateNode{options: testOptions(&recordingUpdater{}, 0)}

	_, _, errno := node.Open(context.Background(), syscall.O_RDONLY)
	assert.Equal(t, syscall.EACCES, errno)

	handle, flags, errno := node.Open(context.Background(), syscall.O_WRONLY|syscall.O_TRUNC)
	assert.Equal(t, syscall.Errno(0), errno)
	assert.NotNil(t, handle)
	assert.NotZero(t, flags&fuse.FOPEN_DIRECT_IO)

	var out fuse.AttrOut
	assert.Equal(t, syscall.Errno(0), node.Getattr(context.Background(), nil, &out))
	assert.Equal(t, uint32(syscall.S_IFREG|updateMode), out.Mode)
}

func TestVersionNodeRead(t *testing.T) {
	node := &versionNode{options: testOptions(&recordingUpdater{}, 42)}

	var out fuse.AttrOut
	require.Equal(t, syscall.Errno(0), node.Getattr(context.Background(), nil, &out))
	assert.Equal(t, uint64(3), out.Size)
	assert.Equal(t, uint32(syscall.S_IFREG|versionMode), out.Mode)

	tests := []struct {
		name string
		size int
		off  int64
		want string
	}{
		{"whole", 16, 0, "42\n"},
		{"partial", 1, 0, "4"},
		{"offset", 16, 1, "2\n"},
		{"past end", 16, 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errno := node.Read(context.Background(), nil, make([]byte, tt.size), tt.off)
			require.Equal(t, syscall.Errno(0), errno)
			data, status := result.Bytes(nil)
			require.Equal(t, fuse.OK, status)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, _, errno := node.Open(context.Background(), syscall.O_WRONLY)
	assert.Equal(t, syscall.EACCES, errno)
}

func TestVersionDefaultsToRecorded(t *testing.T) {
	options := &Options{Updater: &recordingUpdater{}}
	options.setDefaults()
	assert.Equal(t, sysup.Version(), options.Version())
}

func TestMountAttributes(t *testing.T) {
	updater := &recordingUpdater{}
	mountpoint := testMount(t, updater, 7)

	entries, err := os.ReadDir(mountpoint)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{UpdateAttr, VersionAttr}, names)

	version, err := os.ReadFile(filepath.Join(mountpoint, VersionAttr))
	require.NoError(t, err)
	assert.Equal(t, "7\n", string(version))

	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, UpdateAttr), []byte("1\n"), 0o200))
	require.Len(t, updater.payloads, 1)
	assert.Equal(t, "1\n", string(updater.payloads[0]))
}

func TestMountWriteReportsErrno(t *testing.T) {
	updater := &recordingUpdater{err: sysup.Errorf(sysup.KindNoExtentsMapped, "query", "empty")}
	mountpoint := testMount(t, updater, 0)

	err := os.WriteFile(filepath.Join(mountpoint, UpdateAttr), []byte("1"), 0o200)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.EFAULT), "got %v", err)
}
