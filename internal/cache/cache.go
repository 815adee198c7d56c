// Package cache persists the name of the most recently built vector index
// between runs, so re-uploading the same document skips re-embedding and
// uploading a new one knows which stale index to evict.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"docsum/internal/domain"
)

// FileCache is a single-slot index pointer backed by a small JSON file
// {"name": "<fingerprint>"}. At most one name is remembered at a time. A
// mutex guards read-modify-write within the process; concurrent processes
// racing on the file are not coordinated.
type FileCache struct {
	mu   sync.Mutex
	path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

type pointer struct {
	Name string `json:"name"`
}

// Get returns the remembered index name. A missing file is not an error: it
// means nothing was built yet. A malformed file fails with
// domain.ErrCacheRead.
func (c *FileCache) Get() (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", domain.ErrCacheRead, err)
	}
	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrCacheRead, err)
	}
	if p.Name == "" {
		return "", false, nil
	}
	return p.Name, true, nil
}

// Set remembers name as the most recently built index, replacing any
// previous entry.
func (c *FileCache) Set(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(pointer{Name: name}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Evict forgets the remembered index name. Safe when nothing is remembered.
func (c *FileCache) Evict() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
