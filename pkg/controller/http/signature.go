package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature authenticates a webhook payload against the shared
// secret. The payload must be the exact raw bytes read from the wire:
// hashing a re-serialized form of the parsed body would not match what
// the sender signed. The header carries "sha256=<hex>". Comparison is
// constant-time (length-checked, no short-circuit on first mismatch);
// any missing or malformed input yields false, never an error.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
