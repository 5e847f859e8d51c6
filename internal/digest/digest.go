// Package digest hashes content served by the widget server.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex encoded SHA-256 digest of b.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong entity tag for b.
func ETag(b []byte) string {
	return `"` + Sum(b)[:32] + `"`
}
