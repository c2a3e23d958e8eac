package attr

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-sysup/internal/logging"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

// updateNode is the write-only trigger attribute. Every write is handed
// to the updater synchronously and its outcome becomes the write result.
type updateNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*updateNode)(nil)
var _ gofuse.NodeGetattrer = (*updateNode)(nil)
var _ gofuse.NodeSetattrer = (*updateNode)(nil)
var _ gofuse.NodeOpener = (*updateNode)(nil)

func (u *updateNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | updateMode
	out.Size = 0
	return 0
}

// Setattr accepts the truncate that shell redirection issues before
// writing. There is no content to truncate.
func (u *updateNode) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | updateMode
	out.Size = 0
	return 0
}

func (u *updateNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&syscall.O_ACCMODE == syscall.O_RDONLY {
		return nil, 0, syscall.EACCES
	}
	return &updateHandle{options: u.options}, fuse.FOPEN_DIRECT_IO, 0
}

// updateHandle is an open trigger attribute.
type updateHandle struct {
	options *Options
}

var _ gofuse.FileWriter = (*updateHandle)(nil)

func (h *updateHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.options.Updater.Store(data)
	if err != nil {
		errno := sysup.Errno(err)
		h.options.Logger.WithFields(logrus.Fields{
			logging.FieldEvent: logging.EventTrigger,
			logging.FieldCode:  -int(errno),
		}).WithError(err).Debug("trigger write rejected")
		return 0, syscall.Errno(errno)
	}
	return uint32(n), 0
}

// versionNode is the read-only attribute reporting the recorded image
// version.
type versionNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*versionNode)(nil)
var _ gofuse.NodeGetattrer = (*versionNode)(nil)
var _ gofuse.NodeOpener = (*versionNode)(nil)
var _ gofuse.NodeReader = (*versionNode)(nil)

func (v *versionNode) content() []byte {
	return []byte(sysup.FormatVersion(v.options.Version()))
}

func (v *versionNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | versionMode
	out.Size = uint64(len(v.content()))
	return 0
}

func (v *versionNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EACCES
	}
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (v *versionNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data := v.content()
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}
