// Package fingerprint derives stable content identifiers for uploaded
// documents. The identifier doubles as the vector index name, so the
// encoding is restricted to characters the store accepts in index names.
package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Fingerprint returns a deterministic identifier for the given document
// bytes: SHA-256, URL-safe base64 with padding stripped, underscores
// replaced with hyphens, lowercased. Identical bytes always yield the
// identical fingerprint.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	enc := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:])
	enc = strings.ReplaceAll(enc, "_", "-")
	return strings.ToLower(enc)
}
