// Package uploader drives the upload-and-initialize sequence that provisions
// a canister with model weights, a tokenizer and a config.
package uploader

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/icpml/canister-uploader/internal/candid"
	"github.com/icpml/canister-uploader/internal/config"
)

// Canister methods the uploader invokes.
const (
	methodUploadTokenizer    = "upload_tokenizer"
	methodUploadConfig       = "upload_config"
	methodUploadWeightsChunk = "upload_weights_chunk"
	methodInitializeModel    = "initialize_model"
	methodGetModelInfo       = "get_model_info"
)

// TargetNotFoundError is returned when the canister is not deployed or not
// reachable.
type TargetNotFoundError struct {
	Canister string
	Err      error
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("canister %q not found (deploy with: dfx deploy): %s", e.Canister, e.Err)
}

func (e *TargetNotFoundError) Unwrap() error {
	return e.Err
}

type invoker interface {
	CanisterID(ctx context.Context, canister string) (string, error)
	Call(ctx context.Context, canister, method, arg string) (string, error)
}

type fileResolver interface {
	Resolve(repo, filename string) (string, error)
}

type metricsRecorder interface {
	ObserveChunkSent(canister string, sizeBytes int)
	ObserveUploadLatency(canister string, latency time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveChunkSent(string, int) {}

func (noopMetrics) ObserveUploadLatency(string, time.Duration) {}

// ModelFiles are the resolved input files of one upload run.
type ModelFiles struct {
	Weights   string
	Tokenizer string
	Config    string
}

// New creates a new uploader. A nil metrics recorder disables metrics.
func New(
	c *config.Config,
	invoker invoker,
	resolver fileResolver,
	metrics metricsRecorder,
) *U {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &U{
		c:        c,
		invoker:  invoker,
		resolver: resolver,
		metrics:  metrics,
	}
}

// U is an uploader.
type U struct {
	c        *config.Config
	invoker  invoker
	resolver fileResolver
	metrics  metricsRecorder
}

// ResolveInputs locates the weights, tokenizer and config files in the local
// cache. An empty ggufFile selects the configured default. No canister call
// is made until all three files have been resolved.
func (u *U) ResolveInputs(ggufFile string) (*ModelFiles, error) {
	if ggufFile == "" {
		ggufFile = u.c.Model.GGUFFile
	}

	weights, err := u.resolver.Resolve(u.c.Model.GGUFRepo, ggufFile)
	if err != nil {
		return nil, err
	}
	tokenizer, err := u.resolver.Resolve(u.c.Model.BaseRepo, "tokenizer.json")
	if err != nil {
		return nil, err
	}
	cfg, err := u.resolver.Resolve(u.c.Model.BaseRepo, "config.json")
	if err != nil {
		return nil, err
	}

	files := &ModelFiles{
		Weights:   weights,
		Tokenizer: tokenizer,
		Config:    cfg,
	}
	for _, p := range []string{files.Weights, files.Tokenizer, files.Config} {
		log.Printf("Found %q\n", p)
	}
	return files, nil
}

// CheckRemoteTarget confirms the canister is deployed and returns its
// principal.
func (u *U) CheckRemoteTarget(ctx context.Context) (string, error) {
	id, err := u.invoker.CanisterID(ctx, u.c.Canister.Name)
	if err != nil {
		return "", &TargetNotFoundError{Canister: u.c.Canister.Name, Err: err}
	}
	return id, nil
}

// Upload runs the full sequence: resolve inputs, check the canister, upload
// the tokenizer and config whole, upload the weights in chunks, initialize
// the model and report its info. Any failure before the final info query
// aborts the run; the canister keeps whatever partial state the succeeded
// calls produced.
func (u *U) Upload(ctx context.Context, ggufFile string) error {
	start := time.Now()

	files, err := u.ResolveInputs(ggufFile)
	if err != nil {
		return err
	}

	id, err := u.CheckRemoteTarget(ctx)
	if err != nil {
		return err
	}
	log.Printf("Canister %q found: %s\n", u.c.Canister.Name, id)

	size, err := fileSize(files.Weights)
	if err != nil {
		return err
	}
	log.Printf("Uploading %q (%.2f MB) to %q in chunks of %d bytes\n",
		filepath.Base(files.Weights), float64(size)/(1024*1024), u.c.Canister.Name, u.c.Canister.ChunkSize)

	if err := u.uploadFileWhole(ctx, files.Tokenizer, methodUploadTokenizer); err != nil {
		return err
	}
	if err := u.uploadFileWhole(ctx, files.Config, methodUploadConfig); err != nil {
		return err
	}

	weights, err := os.ReadFile(files.Weights)
	if err != nil {
		return err
	}
	if err := u.uploadChunked(ctx, weights, methodUploadWeightsChunk); err != nil {
		return err
	}
	log.Printf("All files uploaded successfully\n")

	if err := u.finalize(ctx); err != nil {
		return err
	}

	u.metrics.ObserveUploadLatency(u.c.Canister.Name, time.Since(start))

	log.Printf("Setup complete. Test with:\n")
	log.Printf("  dfx canister call %s init_with_prompt '(record { prompt = \"Hello\"; config = null })'\n", u.c.Canister.Name)
	return nil
}

// Status queries the canister's model info, returning its output verbatim.
func (u *U) Status(ctx context.Context) (string, error) {
	return u.invoker.Call(ctx, u.c.Canister.Name, methodGetModelInfo, "")
}

// uploadFileWhole sends the full content of a small file as a single call.
func (u *U) uploadFileWhole(ctx context.Context, path, method string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	log.Printf("Uploading %q (%d bytes)\n", filepath.Base(path), len(b))
	if _, err := u.invoker.Call(ctx, u.c.Canister.Name, method, candid.BlobArg(b)); err != nil {
		return err
	}
	log.Printf("Uploaded %q\n", filepath.Base(path))
	return nil
}

// uploadChunked sends the payload as a gapless, ascending sequence of chunks.
// The first failed chunk aborts the upload; nothing is retried or skipped.
func (u *U) uploadChunked(ctx context.Context, data []byte, method string) error {
	total := chunkCount(len(data), u.c.Canister.ChunkSize)
	for i := 0; i < total; i++ {
		start, end := chunkRange(len(data), u.c.Canister.ChunkSize, i)
		chunk := data[start:end]

		log.Printf("Uploading chunk %d/%d (%d bytes)\n", i+1, total, len(chunk))
		out, err := u.invoker.Call(ctx, u.c.Canister.Name, method, candid.ChunkArg(chunk, i, total))
		if err != nil {
			return err
		}
		u.metrics.ObserveChunkSent(u.c.Canister.Name, len(chunk))

		// Progress reporting only. A response we cannot parse never fails
		// the upload.
		if msg, ok := candid.Message(out); ok {
			log.Printf("  Canister: %s\n", msg)
		}
	}
	return nil
}

// finalize triggers model initialization and reports model info. A failed
// initialization is fatal; a failed info query is not.
func (u *U) finalize(ctx context.Context) error {
	log.Printf("Initializing model\n")
	out, err := u.invoker.Call(ctx, u.c.Canister.Name, methodInitializeModel, "")
	if err != nil {
		return err
	}
	log.Printf("Model initialized\n%s", out)

	info, err := u.Status(ctx)
	if err != nil {
		log.Printf("Model info query failed: %s\n", err)
		return nil
	}
	log.Printf("Model info:\n%s", info)
	return nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
