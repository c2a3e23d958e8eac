// Package attr exposes the update trigger and the recorded image version
// as files in a FUSE-mounted attribute directory.
package attr

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-sysup/internal/logging"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

const (
	// UpdateAttr is the write-only trigger attribute
	UpdateAttr = "sec_edtbo_update"
	// VersionAttr is the read-only version attribute
	VersionAttr = "sec_edtbo_version"

	updateMode  = 0o200
	versionMode = 0o444
)

// Updater runs one update for a trigger payload and returns the number of
// bytes consumed.
type Updater interface {
	Store(payload []byte) (int, error)
}

// Options configures the attribute mount.
type Options struct {
	// Mountpoint is created if it does not exist.
	Mountpoint string

	// Updater receives every write to the update attribute.
	Updater Updater

	// Version supplies the value shown by the version attribute. If nil,
	// sysup.Version is used.
	Version func() uint64

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger defaults to the standard logrus logger.
	Logger logrus.FieldLogger
}

// Mount mounts the attribute directory. The caller must call Unmount on
// the returned server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Updater == nil {
		return nil, fmt.Errorf("updater is required")
	}
	options.setDefaults()

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	// Attribute content changes on every read of the version file and
	// writes must reach the updater, so nothing is cached.
	var zero time.Duration
	server, err := gofuse.Mount(options.Mountpoint, &rootNode{options: &options}, &gofuse.Options{
		EntryTimeout:    &zero,
		AttrTimeout:     &zero,
		NegativeTimeout: &zero,
		MountOptions: fuse.MountOptions{
			FsName:     "sec_sysup",
			Name:       "sysup",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting attribute directory at %s: %w", options.Mountpoint, err)
	}

	options.Logger.WithFields(logrus.Fields{
		logging.FieldEvent:      logging.EventMount,
		logging.FieldMountpoint: options.Mountpoint,
	}).Info("attribute directory mounted")
	return server, nil
}

func (o *Options) setDefaults() {
	if o.Version == nil {
		o.Version = sysup.Version
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
}

// rootNode is the attribute directory. It holds exactly the two
// attribute files.
type rootNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	update := r.NewPersistentInode(ctx, &updateNode{options: r.options}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	r.AddChild(UpdateAttr, update, true)

	version := r.NewPersistentInode(ctx, &versionNode{options: r.options}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	r.AddChild(VersionAttr, version, true)
}
