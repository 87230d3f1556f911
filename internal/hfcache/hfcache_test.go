package hfcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "models--Qwen--Qwen3-0.6B", "snapshots", "abc123")
	err := os.MkdirAll(snapshot, 0755)
	assert.NoError(t, err)
	err = os.WriteFile(filepath.Join(snapshot, "tokenizer.json"), []byte("{}"), 0644)
	assert.NoError(t, err)

	c := NewCache(dir)

	got, err := c.Resolve("Qwen/Qwen3-0.6B", "tokenizer.json")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(snapshot, "tokenizer.json"), got)
}

func TestResolve_MissingFile(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "models--Qwen--Qwen3-0.6B", "snapshots", "abc123")
	err := os.MkdirAll(snapshot, 0755)
	assert.NoError(t, err)

	c := NewCache(dir)

	_, err = c.Resolve("Qwen/Qwen3-0.6B", "config.json")
	var merr *MissingFileError
	assert.True(t, errors.As(err, &merr))
	assert.Contains(t, merr.Hint, "huggingface-cli download Qwen/Qwen3-0.6B config.json")
}

func TestResolve_MissingRepo(t *testing.T) {
	c := NewCache(t.TempDir())

	_, err := c.Resolve("unsloth/Qwen3-0.6B-GGUF", "Qwen3-0.6B-Q8_0.gguf")
	var merr *MissingFileError
	assert.True(t, errors.As(err, &merr))
	assert.Contains(t, merr.Path, "models--unsloth--Qwen3-0.6B-GGUF")
}

func TestSnapshotDir_NoSnapshots(t *testing.T) {
	dir := t.TempDir()
	err := os.MkdirAll(filepath.Join(dir, "models--Qwen--Qwen3-0.6B", "snapshots"), 0755)
	assert.NoError(t, err)

	c := NewCache(dir)

	_, err = c.SnapshotDir("Qwen/Qwen3-0.6B")
	var merr *MissingFileError
	assert.True(t, errors.As(err, &merr))
}
