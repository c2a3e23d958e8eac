package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-sysup/internal/types"
)

// StorageObject is the storage backing an open file
type StorageObject interface {
	// StorageLimit returns the largest byte offset the backend can address for a file
	StorageLimit() uint64
}

// ExtentMapper is the optional extent-query capability of a StorageObject.
// Callers must check for it with a type assertion before use.
type ExtentMapper interface {
	// MapExtents fills extents with the runs backing [req.Start, req.Start+req.Length)
	// and returns the number of records written and the result flags.
	// A mapped count above len(extents) means the buffer was too small.
	MapExtents(req types.ExtentMapRequest, extents []types.Extent) (mapped uint32, flags uint32, err error)
}

// TargetFile is a file opened read-only for extent mapping
type TargetFile interface {
	io.Closer

	// Name returns the path the file was opened from
	Name() string

	// Backing returns the storage object behind the file
	Backing() StorageObject
}

// TargetOpener opens files for extent mapping
type TargetOpener interface {
	// OpenReadOnly opens path for reading
	OpenReadOnly(path string) (TargetFile, error)
}

// ParamWriter stores payloads in a durable key-indexed parameter store
type ParamWriter interface {
	// Set writes payload under index
	Set(index int, payload []byte) error
}

// ParamReader reads payloads back from a parameter store
type ParamReader interface {
	// Get returns the payload stored under index
	Get(index int) ([]byte, error)
}

// ParamStore is a parameter store that can be both written and read
type ParamStore interface {
	ParamWriter
	ParamReader
	io.Closer
}
