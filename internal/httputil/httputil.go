// Package httputil provides HTTP helpers for talking to the upload server.
package httputil

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SendHTTPRequestWithRetry sends a JSON request with retry logic. After each
// attempt the retry callback inspects the response status or transport error
// and decides whether to try again. A negative retryCount retries
// indefinitely.
func SendHTTPRequestWithRetry(
	ctx context.Context,
	url url.URL,
	httpMethod string,
	data []byte,
	retry func(status int, err error) (bool, error),
	reqTimeout,
	retryInterval time.Duration,
	retryCount int,
) error {
	client := &http.Client{}
	for attempt := 1; retryCount < 0 || attempt <= retryCount; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, reqTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, httpMethod, url.String(), bytes.NewBuffer(data))
		if err != nil {
			return fmt.Errorf("create request: %s", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		var status int
		if err == nil {
			if err := resp.Body.Close(); err != nil {
				return fmt.Errorf("close response body: %s", err)
			}
			status = resp.StatusCode
		}
		if again, err := retry(status, err); err != nil {
			return err
		} else if !again {
			return nil
		}
		time.Sleep(retryInterval)
	}
	return fmt.Errorf("retry count exceeded")
}
