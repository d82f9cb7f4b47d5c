package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	valueExt   = ".dat"
	tempPrefix = ".mindflow-tmp-"
)

// FS implements KV with one file per key inside a data directory.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS store rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the file that holds key. Keys must be plain names: no path
// separators, no traversal.
func (f *FS) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, tempPrefix) {
		return "", fmt.Errorf("storage: invalid key: %q", key)
	}
	return filepath.Join(f.root, key+valueExt), nil
}

// Get reads the file backing key.
func (f *FS) Get(key string) ([]byte, error) {
	p, err := f.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically replaces the file backing key.
func (f *FS) Set(key string, value []byte) error {
	p, err := f.Path(key)
	if err != nil {
		return err
	}
	return WriteFileAtomic(p, value)
}

// Delete removes the file backing key.
func (f *FS) Delete(key string) error {
	p, err := f.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every value file in the data directory. Unrelated files are
// left alone.
func (f *FS) Clear() error {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return fmt.Errorf("storage: clear: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), valueExt) {
			continue
		}
		if err := os.Remove(filepath.Join(f.root, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: clear %s: %w", e.Name(), err)
		}
	}
	return nil
}
