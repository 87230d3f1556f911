package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/icpml/canister-uploader/internal/httputil"
)

// NewClient creates a new client for the upload server.
func NewClient(addr string) *Client {
	return &Client{
		addr: addr,
	}
}

// Client is a client for the upload server.
type Client struct {
	addr string
}

// UploadModel asks the upload server to upload a model file to the canister.
func (c *Client) UploadModel(ctx context.Context, ggufFile string) error {
	const (
		requestTimeout = 3 * time.Second
		retryInterval  = 2 * time.Second
	)

	log := logr.FromContextOrDiscard(ctx)

	uploadURL := url.URL{Scheme: "http", Host: c.addr, Path: "/upload"}

	req := &uploadModelRequest{
		GGUFFile: ggufFile,
	}
	uploadData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal upload model request: %s", err)
	}

	if err := httputil.SendHTTPRequestWithRetry(ctx, uploadURL, http.MethodPost, uploadData, func(status int, err error) (bool, error) {
		if err != nil {
			log.V(2).Error(err, "Failed to request the upload", "url", uploadURL, "retry-interval", retryInterval)
			return true, nil
		}
		if status != http.StatusAccepted {
			return false, fmt.Errorf("unexpected status code: %d", status)
		}
		return false, nil
	}, requestTimeout, retryInterval, 3); err != nil {
		return fmt.Errorf("failed to request the upload: %s", err)
	}

	return nil
}

// GetModel returns the status code the upload server reports for a model
// file.
func (c *Client) GetModel(ctx context.Context, ggufFile string) (int, error) {
	statusURL := url.URL{Scheme: "http", Host: c.addr, Path: "/models/" + ggufFile}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	if err := resp.Body.Close(); err != nil {
		return 0, fmt.Errorf("failed to close response body: %s", err)
	}
	return resp.StatusCode, nil
}
