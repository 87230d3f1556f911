// Package candid builds the textual argument literals that "dfx canister call"
// accepts and extracts human-readable messages from its textual responses.
package candid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BlobArg encodes a byte payload as a single blob-literal argument.
func BlobArg(b []byte) string {
	return fmt.Sprintf("(blob %q)", hex.EncodeToString(b))
}

// ChunkArg encodes a byte payload together with its chunk index and the total
// chunk count.
func ChunkArg(b []byte, index, total int) string {
	return fmt.Sprintf("(blob %q, %d : nat, %d : nat)", hex.EncodeToString(b), index, total)
}

// Message extracts the first double-quoted substring from a textual response.
// The canister returns its progress messages as candid text values, so this is
// a best-effort extraction for display purposes only.
func Message(out string) (string, bool) {
	parts := strings.Split(out, `"`)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}
