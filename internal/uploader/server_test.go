package uploader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
)

func TestServer(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	assert.NoError(t, err)

	up := &fakeModelUploader{
		uploadedFiles: make(map[string]bool),
	}
	srv := NewServer(up, testr.New(t))
	go func() {
		err := srv.start(l)
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled))
			return
		}
		assert.NoError(t, err)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := srv.ProcessUploadRequests(ctx)
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled))
			return
		}
		assert.NoError(t, err)
	}()

	<-srv.ready

	client := NewClient(fmt.Sprintf("localhost:%d", l.Addr().(*net.TCPAddr).Port))
	status, err := client.GetModel(ctx, "Qwen3-0.6B-Q8_0.gguf")
	assert.NoError(t, err)
	assert.Equal(t, status, http.StatusNotFound)

	// Empty file name. Request rejected.
	err = client.UploadModel(ctx, "")
	assert.Error(t, err)

	err = client.UploadModel(ctx, "Qwen3-0.6B-Q8_0.gguf")
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return up.isUploaded("Qwen3-0.6B-Q8_0.gguf")
	}, 5*time.Second, 10*time.Millisecond, "Model file should be uploaded")

	assert.Eventually(t, func() bool {
		status, err := client.GetModel(ctx, "Qwen3-0.6B-Q8_0.gguf")
		assert.NoError(t, err)
		return status == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond, "Upload should be reported complete")

	err = srv.shutdown(ctx)
	assert.NoError(t, err)
}

type fakeModelUploader struct {
	uploadedFiles map[string]bool
	mu            sync.Mutex
}

func (f *fakeModelUploader) Upload(ctx context.Context, ggufFile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadedFiles[ggufFile] = true
	return nil
}

func (f *fakeModelUploader) isUploaded(ggufFile string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadedFiles[ggufFile]
}
