package prefetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/icpml/canister-uploader/internal/hfcache"
	"github.com/stretchr/testify/assert"
)

func TestEnsure_Downloads(t *testing.T) {
	cache := hfcache.NewCache(t.TempDir())
	s3 := &fakeS3Client{
		objects: map[string][]byte{
			"models/Qwen/Qwen3-0.6B/tokenizer.json": []byte("{}"),
		},
	}
	d := New(cache, "models", s3)

	err := d.Ensure(context.Background(), "Qwen/Qwen3-0.6B", "tokenizer.json")
	assert.NoError(t, err)

	path, err := cache.Resolve("Qwen/Qwen3-0.6B", "tokenizer.json")
	assert.NoError(t, err)
	b, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("{}"), b)

	// The completion indication file marks the download as finished.
	_, err = os.Stat(d.CompletionIndicationFilePath("Qwen/Qwen3-0.6B", "tokenizer.json"))
	assert.NoError(t, err)
}

func TestEnsure_SkipsCompletedDownload(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "models--Qwen--Qwen3-0.6B", "snapshots", "abc123")
	err := os.MkdirAll(snapshot, 0755)
	assert.NoError(t, err)
	err = os.WriteFile(filepath.Join(snapshot, "config.json"), []byte("{}"), 0644)
	assert.NoError(t, err)

	s3 := &fakeS3Client{}
	d := New(hfcache.NewCache(dir), "models", s3)
	err = os.WriteFile(d.CompletionIndicationFilePath("Qwen/Qwen3-0.6B", "config.json"), nil, 0644)
	assert.NoError(t, err)

	err = d.Ensure(context.Background(), "Qwen/Qwen3-0.6B", "config.json")
	assert.NoError(t, err)
	assert.Empty(t, s3.downloadedKeys)
}

func TestEnsure_RedownloadsInterruptedDownload(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "models--Qwen--Qwen3-0.6B", "snapshots", "abc123")
	err := os.MkdirAll(snapshot, 0755)
	assert.NoError(t, err)

	// A file without a completion indication file is what an interrupted run
	// leaves behind. It must not be served as-is.
	err = os.WriteFile(filepath.Join(snapshot, "config.json"), []byte(`{"config`), 0644)
	assert.NoError(t, err)

	s3 := &fakeS3Client{
		objects: map[string][]byte{
			"models/Qwen/Qwen3-0.6B/config.json": []byte(`{"config":true}`),
		},
	}
	cache := hfcache.NewCache(dir)
	d := New(cache, "models", s3)

	err = d.Ensure(context.Background(), "Qwen/Qwen3-0.6B", "config.json")
	assert.NoError(t, err)
	assert.Equal(t, []string{"models/Qwen/Qwen3-0.6B/config.json"}, s3.downloadedKeys)

	path, err := cache.Resolve("Qwen/Qwen3-0.6B", "config.json")
	assert.NoError(t, err)
	b, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte(`{"config":true}`), b)
}

func TestEnsure_DownloadError(t *testing.T) {
	cache := hfcache.NewCache(t.TempDir())
	d := New(cache, "models", &fakeS3Client{})

	err := d.Ensure(context.Background(), "Qwen/Qwen3-0.6B", "config.json")
	assert.Error(t, err)

	// Neither a partial file nor a completion indication file may be left
	// behind.
	_, err = cache.Resolve("Qwen/Qwen3-0.6B", "config.json")
	assert.Error(t, err)
	_, err = os.Stat(d.CompletionIndicationFilePath("Qwen/Qwen3-0.6B", "config.json"))
	assert.True(t, os.IsNotExist(err))
}

type fakeS3Client struct {
	objects        map[string][]byte
	downloadedKeys []string
}

func (f *fakeS3Client) Download(ctx context.Context, w io.WriterAt, key string) error {
	b, ok := f.objects[key]
	if !ok {
		return fmt.Errorf("object %q not found", key)
	}
	if _, err := w.WriteAt(b, 0); err != nil {
		return err
	}
	f.downloadedKeys = append(f.downloadedKeys, key)
	return nil
}
