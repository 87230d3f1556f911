package dfx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanisterID(t *testing.T) {
	c := NewClient("echo", DefaultTimeout)
	id, err := c.CanisterID(context.Background(), "qwen3_backend")
	assert.NoError(t, err)
	assert.Equal(t, "canister id qwen3_backend", id)
}

func TestCall_NoArg(t *testing.T) {
	c := NewClient("echo", DefaultTimeout)
	out, err := c.Call(context.Background(), "qwen3_backend", "initialize_model", "")
	assert.NoError(t, err)
	assert.Equal(t, "canister call qwen3_backend initialize_model\n", out)
}

func TestCall_Arg(t *testing.T) {
	c := NewClient("echo", DefaultTimeout)
	out, err := c.Call(context.Background(), "qwen3_backend", "upload_config", `(blob "0102")`)
	assert.NoError(t, err)
	assert.Equal(t, "canister call qwen3_backend upload_config (blob \"0102\")\n", out)
}

func TestRun_NonZeroExit(t *testing.T) {
	c := NewClient("false", DefaultTimeout)
	_, err := c.run(context.Background(), "canister", "id", "qwen3_backend")
	assert.Error(t, err)
	var terr *TransferError
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, []string{"canister", "id", "qwen3_backend"}, terr.Args)
}

func TestRun_MissingBinary(t *testing.T) {
	c := NewClient("no-such-binary-anywhere", DefaultTimeout)
	_, err := c.run(context.Background(), "canister", "id", "qwen3_backend")
	var terr *TransferError
	assert.True(t, errors.As(err, &terr))
}

func TestRun_Timeout(t *testing.T) {
	c := NewClient("sleep", 50*time.Millisecond)
	_, err := c.run(context.Background(), "10")
	var terr *TimeoutError
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, 50*time.Millisecond, terr.Timeout)
}
