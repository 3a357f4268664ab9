// Package snapshot keeps the last-known content of each tracked file so the
// next change event has a baseline to diff against.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoSnapshot is returned by Get when no baseline exists for a path.
var ErrNoSnapshot = errors.New("no snapshot")

// Store persists file content baselines keyed by file path.
type Store interface {
	Put(path, content string) error
	Get(path string) (string, error) // returns ErrNoSnapshot if none exists
	Delete(path string) error
}

// diskStore writes one file per tracked path inside a side directory.
type diskStore struct {
	dir string
}

// NewDiskStore returns a Store backed by dir, creating it if needed.
func NewDiskStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// Key returns the file name a path's baseline is stored under. It hashes the
// cleaned path so files sharing a base name in different directories never
// overwrite each other.
func Key(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:]) + ".snap"
}

func (d *diskStore) file(path string) string {
	return filepath.Join(d.dir, Key(path))
}

// Put writes content atomically via a temp file + os.Rename.
func (d *diskStore) Put(path, content string) (err error) {
	tmp, err := os.CreateTemp(d.dir, "snap-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot for %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", path, err)
	}
	if err = os.Rename(tmpName, d.file(path)); err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", path, err)
	}
	return nil
}

// Get returns the stored baseline for path.
// Returns ErrNoSnapshot if nothing was stored yet.
func (d *diskStore) Get(path string) (string, error) {
	data, err := os.ReadFile(d.file(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSnapshot
		}
		return "", fmt.Errorf("failed to read snapshot for %s: %w", path, err)
	}
	return string(data), nil
}

// Delete removes the baseline for path. A missing baseline is not an error.
func (d *diskStore) Delete(path string) error {
	if err := os.Remove(d.file(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot for %s: %w", path, err)
	}
	return nil
}

// memoryStore keeps baselines in a map. Used by tests and dry runs.
type memoryStore struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryStore returns a Store that never touches the filesystem.
func NewMemoryStore() Store {
	return &memoryStore{files: make(map[string]string)}
}

func (m *memoryStore) Put(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
	return nil
}

func (m *memoryStore) Get(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", ErrNoSnapshot
	}
	return content, nil
}

func (m *memoryStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.Clean(path))
	return nil
}
