// Package blob is the filename-keyed disk store backing uploaded
// documents and images.
package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	// Collapse any path components in the key; blobs live flat in the
	// store directory.
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Store) Save(name string, data []byte) error {
	if err := os.WriteFile(s.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete reports whether a blob was actually removed; deleting an
// absent blob is not an error.
func (s *Store) Delete(name string) (bool, error) {
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return true, nil
}
