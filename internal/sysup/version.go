package sysup

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// The recorded image version is set once during startup and is read-only
// afterwards. Nothing in the update path changes it.
var (
	versionOnce  sync.Once
	versionValue atomic.Uint64
)

// SetVersion records the image version. Only the first call takes effect;
// it reports whether this call was the one that set it.
func SetVersion(v uint64) bool {
	set := false
	versionOnce.Do(func() {
		versionValue.Store(v)
		set = true
	})
	return set
}

// Version returns the recorded image version, or 0 if none was set.
func Version() uint64 {
	return versionValue.Load()
}

// FormatVersion renders the version the way the status surface reports it.
func FormatVersion(v uint64) string {
	return fmt.Sprintf("%d\n", v)
}
