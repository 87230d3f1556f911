// Package hfcache resolves files under the Hugging Face hub cache layout
// (hub/models--<org>--<name>/snapshots/<revision>/<file>).
package hfcache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MissingFileError is returned when a required local file cannot be resolved.
// Hint tells the user how to obtain the file.
type MissingFileError struct {
	Path string
	Hint string
}

func (e *MissingFileError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not found. %s", e.Path, e.Hint)
	}
	return fmt.Sprintf("%s not found", e.Path)
}

// DefaultDir returns the default hub cache directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "huggingface", "hub")
	}
	return filepath.Join(home, ".cache", "huggingface", "hub")
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Cache is a read-only view of a hub cache directory.
type Cache struct {
	dir string
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// RepoDir returns the cache directory of a repository such as
// "Qwen/Qwen3-0.6B".
func (c *Cache) RepoDir(repo string) string {
	return filepath.Join(c.dir, "models--"+strings.ReplaceAll(repo, "/", "--"))
}

// SnapshotDir returns the first snapshot directory of a repository. The cache
// keeps one snapshot per downloaded revision; any of them works here since
// the files we need are revision-stable.
func (c *Cache) SnapshotDir(repo string) (string, error) {
	snapshots := filepath.Join(c.RepoDir(repo), "snapshots")
	entries, err := os.ReadDir(snapshots)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingFileError{
				Path: snapshots,
				Hint: fmt.Sprintf("Run: huggingface-cli download %s", repo),
			}
		}
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(snapshots, e.Name()), nil
		}
	}
	return "", &MissingFileError{
		Path: snapshots,
		Hint: fmt.Sprintf("Run: huggingface-cli download %s", repo),
	}
}

// Resolve returns the path of a file in the first snapshot of a repository.
func (c *Cache) Resolve(repo, filename string) (string, error) {
	dir, err := c.SnapshotDir(repo)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", &MissingFileError{
				Path: path,
				Hint: fmt.Sprintf("Run: huggingface-cli download %s %s", repo, filename),
			}
		}
		return "", err
	}
	return path, nil
}
