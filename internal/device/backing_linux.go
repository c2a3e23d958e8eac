//go:build linux

package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"unsafe"

	"github.com/deploymenttheory/go-sysup/internal/interfaces"
	"github.com/deploymenttheory/go-sysup/internal/parsers/fiemap"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
	"github.com/deploymenttheory/go-sysup/internal/types"
	"golang.org/x/sys/unix"
)

// ioctlFiemap is FS_IOC_FIEMAP from include/uapi/linux/fs.h.
// Encodes _IOWR('f', 11, struct fiemap) where sizeof(struct fiemap) is 32.
//
// Bit layout: direction(3=read|write) << 30 | size(32) << 16 | type('f') << 8 | nr(11)
const ioctlFiemap = 0xC020660B

// Superblock magics from include/uapi/linux/magic.h
const (
	ext4SuperMagic   = 0xEF53
	f2fsSuperMagic   = 0xF2F52010
	tmpfsMagic       = 0x01021994
	ramfsMagic       = 0x858458F6
	procSuperMagic   = 0x9FA0
	sysfsMagic       = 0x62656572
	devptsSuperMagic = 0x1CD1
)

// noFiemap lists filesystems whose inodes have no fiemap operation.
var noFiemap = map[uint32]string{
	tmpfsMagic:       "tmpfs",
	ramfsMagic:       "ramfs",
	procSuperMagic:   "proc",
	sysfsMagic:       "sysfs",
	devptsSuperMagic: "devpts",
}

// maxLFSFileSize is MAX_LFS_FILESIZE on 64-bit kernels.
const maxLFSFileSize = math.MaxInt64

// f2fs addressing: 923 direct pointers in the inode, two direct node
// blocks, two indirect and one double indirect, 1018 entries per node.
const (
	f2fsAddrsPerInode = 923
	f2fsNidsPerBlock  = 1018
)

// plainObject is backing storage without FIEMAP support
type plainObject struct {
	limit uint64
	fs    string
}

func (p *plainObject) StorageLimit() uint64 { return p.limit }

func (p *plainObject) String() string { return p.fs }

// fiemapObject is backing storage that answers FS_IOC_FIEMAP
type fiemapObject struct {
	file  *os.File
	limit uint64
}

var _ interfaces.StorageObject = (*plainObject)(nil)
var _ interfaces.ExtentMapper = (*fiemapObject)(nil)

func (o *fiemapObject) StorageLimit() uint64 { return o.limit }

// MapExtents issues FS_IOC_FIEMAP for req with room for len(extents) records.
func (o *fiemapObject) MapExtents(req types.ExtentMapRequest, extents []types.Extent) (uint32, uint32, error) {
	count := uint32(len(extents))
	buf := make([]byte, fiemap.BufferSize(count))

	header := fiemap.Header{
		Start:       req.Start,
		Length:      req.Length,
		Flags:       req.Flags,
		ExtentCount: count,
	}
	if err := fiemap.PutHeader(buf, header, binary.NativeEndian); err != nil {
		return 0, 0, err
	}

	rawConn, err := o.file.SyscallConn()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to access file descriptor: %w", err)
	}

	var errno unix.Errno
	controlErr := rawConn.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(
			unix.SYS_IOCTL,
			fd,
			uintptr(ioctlFiemap),
			uintptr(unsafe.Pointer(&buf[0])),
		)
	})
	if controlErr != nil {
		return 0, 0, fmt.Errorf("failed to access file descriptor: %w", controlErr)
	}

	switch errno {
	case 0:
	case unix.EOPNOTSUPP, unix.ENOTTY:
		return 0, 0, sysup.NewError(sysup.KindUnsupportedOperation, "fiemap ioctl", errno)
	default:
		return 0, 0, fmt.Errorf("fiemap ioctl: %w", errno)
	}

	reply, err := fiemap.ParseHeader(buf, binary.NativeEndian)
	if err != nil {
		return 0, 0, err
	}

	// The kernel never writes more than fm_extent_count records; decode only
	// what fits even if the reported count says otherwise.
	n := reply.MappedExtents
	if n > count {
		n = count
	}
	if err := fiemap.ParseExtents(buf, extents[:n], binary.NativeEndian); err != nil {
		return 0, 0, err
	}

	return reply.MappedExtents, reply.Flags, nil
}

// probeBacking inspects the filesystem holding file and returns a storage
// object that exposes FIEMAP only where the filesystem implements it.
func probeBacking(file *os.File) (interfaces.StorageObject, error) {
	rawConn, err := file.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("failed to access file descriptor: %w", err)
	}

	var st unix.Statfs_t
	var statErr error
	if err := rawConn.Control(func(fd uintptr) {
		statErr = unix.Fstatfs(int(fd), &st)
	}); err != nil {
		return nil, fmt.Errorf("failed to access file descriptor: %w", err)
	}
	if statErr != nil {
		return nil, fmt.Errorf("failed to statfs: %w", statErr)
	}

	magic := uint32(st.Type)
	limit := StorageLimit(magic, uint64(st.Bsize))

	if name, ok := noFiemap[magic]; ok {
		return &plainObject{limit: limit, fs: name}, nil
	}
	return &fiemapObject{file: file, limit: limit}, nil
}

// StorageLimit returns the maximum file size for a filesystem with the given
// superblock magic and block size.
func StorageLimit(magic uint32, blockSize uint64) uint64 {
	var limit uint64
	switch magic {
	case ext4SuperMagic:
		// Extent-mapped files address at most 2^32-1 logical blocks.
		limit = (1<<32 - 1) * blockSize
	case f2fsSuperMagic:
		blocks := uint64(f2fsAddrsPerInode) +
			2*f2fsNidsPerBlock +
			2*f2fsNidsPerBlock*f2fsNidsPerBlock +
			f2fsNidsPerBlock*f2fsNidsPerBlock*f2fsNidsPerBlock
		limit = blocks * blockSize
	default:
		return maxLFSFileSize
	}

	if limit == 0 || limit > maxLFSFileSize {
		return maxLFSFileSize
	}
	return limit
}
