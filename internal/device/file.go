package device

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/go-sysup/internal/interfaces"
)

// File is a regular file opened read-only for extent mapping
type File struct {
	file    *os.File
	backing interfaces.StorageObject
}

var _ interfaces.TargetFile = (*File)(nil)

// Opener opens files on the local filesystem
type Opener struct{}

var _ interfaces.TargetOpener = Opener{}

// OpenReadOnly opens path and probes the filesystem behind it
func (Opener) OpenReadOnly(path string) (interfaces.TargetFile, error) {
	file, err := Open(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Open opens path read-only and probes the filesystem behind it
func Open(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	backing, err := probeBacking(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &File{file: file, backing: backing}, nil
}

// Name returns the path the file was opened from
func (f *File) Name() string {
	return f.file.Name()
}

// Backing returns the storage object behind the file
func (f *File) Backing() interfaces.StorageObject {
	return f.backing
}

// Close closes the underlying file
func (f *File) Close() error {
	return f.file.Close()
}
