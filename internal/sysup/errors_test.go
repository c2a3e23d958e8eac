package sysup

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"request invalid", NewError(KindRequestInvalid, "parse trigger", nil), -int(unix.EINVAL)},
		{"not found", NewError(KindNotFound, "open", os.ErrNotExist), -int(unix.ENOENT)},
		{"unsupported", NewError(KindUnsupportedOperation, "query", nil), -int(unix.EOPNOTSUPP)},
		{"range too large", NewError(KindRangeTooLarge, "check ranges", nil), -int(unix.EFBIG)},
		{"query failed keeps backend errno", NewError(KindQueryFailed, "query", fmt.Errorf("fiemap ioctl: %w", unix.EBADF)), -int(unix.EBADF)},
		{"query failed without errno", NewError(KindQueryFailed, "query", errors.New("short reply")), -int(unix.EIO)},
		{"no extents", NewError(KindNoExtentsMapped, "query", nil), -int(unix.EFAULT)},
		{"persistence", NewError(KindPersistenceFailure, "persist result", unix.ENOSPC), -int(unix.EIO)},
		{"unclassified", errors.New("boom"), -int(unix.EIO)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("update: %w", Errorf(KindNotFound, "open", "missing %s", "edtbo.img"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrQueryFailed))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	err := NewError(KindNotFound, "open", os.ErrNotExist)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "open: not found: file does not exist", err.Error())
	assert.Equal(t, "request invalid", NewError(KindRequestInvalid, "", nil).Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "no extents mapped", KindNoExtentsMapped.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
