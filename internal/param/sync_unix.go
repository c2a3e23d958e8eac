//go:build linux || freebsd

package param

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncData flushes file data to storage. On Linux/FreeBSD, fdatasync() is
// enough: slot writes never change metadata that matters to a reader.
func syncData(file *os.File) error {
	return unix.Fdatasync(int(file.Fd()))
}
