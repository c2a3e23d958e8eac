//go:build !linux

package device

import (
	"math"
	"os"

	"github.com/deploymenttheory/go-sysup/internal/interfaces"
)

// plainObject is backing storage without extent map support. FIEMAP is a
// Linux interface, so every file on other platforms gets one.
type plainObject struct {
	limit uint64
}

func (p *plainObject) StorageLimit() uint64 { return p.limit }

func (p *plainObject) String() string { return "no fiemap" }

func probeBacking(_ *os.File) (interfaces.StorageObject, error) {
	return &plainObject{limit: math.MaxInt64}, nil
}

// StorageLimit returns the maximum file size assumed on this platform.
func StorageLimit(_ uint32, _ uint64) uint64 {
	return math.MaxInt64
}
