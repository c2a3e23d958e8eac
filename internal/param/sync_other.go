//go:build !linux && !freebsd

package param

import "os"

// syncData flushes file data to storage.
func syncData(file *os.File) error {
	return file.Sync()
}
