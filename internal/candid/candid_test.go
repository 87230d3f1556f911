package candid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlobArg(t *testing.T) {
	got := BlobArg([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Equal(t, `(blob "deadbeef")`, got)

	got = BlobArg(nil)
	assert.Equal(t, `(blob "")`, got)
}

func TestChunkArg(t *testing.T) {
	got := ChunkArg([]byte{0x01, 0x02}, 3, 10)
	assert.Equal(t, `(blob "0102", 3 : nat, 10 : nat)`, got)
}

func TestMessage(t *testing.T) {
	tcs := []struct {
		name string
		out  string
		want string
		ok   bool
	}{
		{
			name: "text response",
			out:  `("Received chunk 3/10 (5700000 bytes total)")`,
			want: "Received chunk 3/10 (5700000 bytes total)",
			ok:   true,
		},
		{
			name: "no quotes",
			out:  "(variant { ok })",
			ok:   false,
		},
		{
			name: "empty",
			out:  "",
			ok:   false,
		},
		{
			name: "unbalanced quote",
			out:  `("partial`,
			want: "partial",
			ok:   true,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Message(tc.out)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
