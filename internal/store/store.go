// Package store persists named opaque blobs under a single data
// directory. Callers own the encoding; the store only guarantees that a
// blob is either fully written or untouched.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type Store struct {
	dir string
}

// New creates a blob store rooted at dir. The directory is created
// lazily on the first write.
func New(dir string) *Store {
	if dir == "" {
		// Fallback for development runs without an explicit data dir.
		dir = "./data"
	}
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Read returns the named blob's contents and whether the blob exists.
// An absent blob is not an error, so callers can distinguish "never
// written" from a valid empty value.
func (s *Store) Read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write replaces the named blob atomically: the data is written to a
// temp file in the same directory, fsynced, chmodded to 0600 and renamed
// over the target. A crash mid-write never leaves a partial blob behind.
func (s *Store) Write(name string, data []byte) error {
	if name == "" {
		return errors.New("store: blob name is empty")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, name))
}
