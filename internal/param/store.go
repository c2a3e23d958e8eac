package param

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-sysup/internal/interfaces"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

// FileStore is a parameter store over a file or block device. Each Set is
// written and synced on its own; there is no transaction spanning slots.
type FileStore struct {
	path   string
	layout Layout
}

var _ interfaces.ParamStore = (*FileStore)(nil)

// Open returns a store over path using layout. The backing file is created
// on first write if it does not exist.
func Open(path string, layout Layout) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("param store path is required")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid param layout: %w", err)
	}
	return &FileStore{path: path, layout: layout}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Set writes payload into the slot for index and syncs it to storage.
// The payload must fill the slot exactly.
func (s *FileStore) Set(index int, payload []byte) error {
	slot, err := s.layout.Slot(index)
	if err != nil {
		return err
	}
	if len(payload) != slot.Size {
		return fmt.Errorf("payload for %s is %d bytes, slot holds %d", types.ParamIndexName(index), len(payload), slot.Size)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create param store directory: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open param store: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteAt(payload, slot.Offset); err != nil {
		return fmt.Errorf("failed to write %s: %w", types.ParamIndexName(index), err)
	}

	if err := syncData(file); err != nil {
		return fmt.Errorf("failed to sync %s: %w", types.ParamIndexName(index), err)
	}

	return file.Close()
}

// Get reads the slot for index. A slot beyond the end of the backing file
// reads as an error.
func (s *FileStore) Get(index int) ([]byte, error) {
	slot, err := s.layout.Slot(index)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open param store: %w", err)
	}
	defer file.Close()

	buf := make([]byte, slot.Size)
	if _, err := file.ReadAt(buf, slot.Offset); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s has not been written", types.ParamIndexName(index))
		}
		return nil, fmt.Errorf("failed to read %s: %w", types.ParamIndexName(index), err)
	}

	return buf, nil
}

// Close releases the store. Files are opened per operation, so there is
// nothing to flush.
func (s *FileStore) Close() error {
	return nil
}
