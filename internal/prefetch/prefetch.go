// Package prefetch downloads model files from an object store into the local
// Hugging Face cache so that a later upload can resolve them.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/aws/smithy-go"
	"github.com/icpml/canister-uploader/internal/hfcache"
)

// snapshotName is the revision directory used for prefetched files. The cache
// resolver picks the first snapshot, so a single well-known name is enough.
const snapshotName = "prefetch"

type s3Client interface {
	Download(ctx context.Context, w io.WriterAt, key string) error
}

// New returns a new D.
func New(cache *hfcache.Cache, pathPrefix string, s3Client s3Client) *D {
	return &D{
		cache:      cache,
		pathPrefix: pathPrefix,
		s3Client:   s3Client,
	}
}

// D is a downloader.
type D struct {
	cache      *hfcache.Cache
	pathPrefix string
	s3Client   s3Client
}

// Ensure makes a repository file available in the local cache, downloading it
// from the object store unless a previous run fully downloaded it. It never
// contacts the canister.
func (d *D) Ensure(ctx context.Context, repo, filename string) error {
	// Check if the completion indication file exists. If so, the download
	// completed in a previous run. Do not download again. A bare file without
	// it may be a partial download from an interrupted run and is downloaded
	// again.
	marker := d.CompletionIndicationFilePath(repo, filename)
	if _, err := os.Stat(marker); err == nil {
		log.Printf("%q has already been downloaded. Skipping the download.\n", filename)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	destDir, err := d.snapshotDir(repo)
	if err != nil {
		return err
	}
	destPath := filepath.Join(destDir, filename)

	key := filepath.Join(d.pathPrefix, repo, filename)
	log.Printf("Downloading %q from the object store\n", key)

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file %q: %s", destPath, err)
	}
	if err := d.s3Client.Download(ctx, f, key); err != nil {
		_ = f.Close()
		if rerr := os.Remove(destPath); rerr != nil {
			return fmt.Errorf("remove file %q: %s", destPath, rerr)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return fmt.Errorf("object %q not found in the bucket. Upload it or run: huggingface-cli download %s %s", key, repo, filename)
		}
		return fmt.Errorf("download %q: %s", key, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Create a file that indicates the completion of the download.
	mf, err := os.Create(marker)
	if err != nil {
		return err
	}
	if err := mf.Close(); err != nil {
		return err
	}

	log.Printf("Downloaded %q to %q\n", key, destPath)
	return nil
}

// CompletionIndicationFilePath returns the marker file recording that a
// repository file finished downloading. It lives outside the snapshot
// directory so it can never be mistaken for a model file.
func (d *D) CompletionIndicationFilePath(repo, filename string) string {
	return filepath.Join(d.cache.RepoDir(repo), filename+".completed")
}

// snapshotDir returns the snapshot directory prefetched files land in,
// reusing an existing snapshot when the repository is already in the cache.
func (d *D) snapshotDir(repo string) (string, error) {
	if dir, err := d.cache.SnapshotDir(repo); err == nil {
		return dir, nil
	}
	dir := filepath.Join(d.cache.RepoDir(repo), "snapshots", snapshotName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create directory %q: %s", dir, err)
	}
	return dir, nil
}
