// Package dfx invokes the dfx command-line tool to talk to a canister.
package dfx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single dfx invocation. Chunk uploads can take a
// while on a loaded replica, so this is deliberately generous.
const DefaultTimeout = 5 * time.Minute

// TransferError is returned when a dfx invocation exits non-zero or cannot be
// started. Stderr carries the diagnostic text captured from the tool.
type TransferError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *TransferError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("dfx %s: %s: %s", strings.Join(e.Args, " "), e.Err, e.Stderr)
	}
	return fmt.Sprintf("dfx %s: %s", strings.Join(e.Args, " "), e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a dfx invocation exceeds the per-call
// deadline.
type TimeoutError struct {
	Args    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dfx %s: timed out after %s", strings.Join(e.Args, " "), e.Timeout)
}

// NewClient returns a new dfx client. An empty bin falls back to "dfx" on the
// PATH. A non-positive timeout falls back to DefaultTimeout.
func NewClient(bin string, timeout time.Duration) *Client {
	if bin == "" {
		bin = "dfx"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		bin:     bin,
		timeout: timeout,
	}
}

// Client is a client for the dfx command-line tool.
type Client struct {
	bin     string
	timeout time.Duration
}

// CanisterID looks up the principal of a deployed canister.
func (c *Client) CanisterID(ctx context.Context, canister string) (string, error) {
	out, err := c.run(ctx, "canister", "id", canister)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Call invokes a method on a canister. The argument is a candid textual
// literal; an empty argument invokes the method with no argument.
func (c *Client) Call(ctx context.Context, canister, method, arg string) (string, error) {
	args := []string{"canister", "call", canister, method}
	if arg != "" {
		args = append(args, arg)
	}
	return c.run(ctx, args...)
}

// run executes a single dfx invocation, blocking until it completes, fails,
// or hits the per-call deadline. Invocations are never retried.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &TimeoutError{Args: args, Timeout: c.timeout}
		}
		return "", &TransferError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
