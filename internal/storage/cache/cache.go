// Package cache stores JSON documents as files sharded by ID prefix.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Type names the subdirectory a cache lives in.
type Type string

// Cache types.
const (
	TranscriptCache Type = "transcripts"
)

const (
	cacheExt       = ".json"
	shardPrefixLen = 2
)

// ErrInvalidID is returned for empty IDs or IDs containing path separators.
var ErrInvalidID = errors.New("invalid id")

// Cache stores values of type T, one JSON file per ID.
type Cache[T any] struct {
	dir string
}

// New creates the cache directory under baseDir if needed.
func New[T any](baseDir string, cacheType Type) (*Cache[T], error) {
	dir := filepath.Join(baseDir, string(cacheType))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache[T]{dir: dir}, nil
}

func (c *Cache[T]) filePath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if len(id) < shardPrefixLen {
		return filepath.Join(c.dir, id+cacheExt), nil
	}
	return filepath.Join(c.dir, id[:shardPrefixLen], id+cacheExt), nil
}

// Get decodes the value stored under id. A missing entry wraps os.ErrNotExist.
func (c *Cache[T]) Get(id string) (T, error) {
	var v T
	path, err := c.filePath(id)
	if err != nil {
		return v, fmt.Errorf("read: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return v, fmt.Errorf("read: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := json.NewDecoder(file).Decode(&v); err != nil {
		return v, fmt.Errorf("read %s: %w", id, err)
	}
	return v, nil
}

// Put atomically replaces the value stored under id.
func (c *Cache[T]) Put(id string, v T) error {
	path, err := c.filePath(id)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Delete removes the entry stored under id.
func (c *Cache[T]) Delete(id string) error {
	path, err := c.filePath(id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
