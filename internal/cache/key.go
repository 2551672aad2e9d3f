package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key returns the content address of source: the hex SHA-256 of its bytes.
// Identical bytes share a key regardless of path or revision.
func Key(source []byte) string {
	h := sha256.Sum256(source)
	return hex.EncodeToString(h[:])
}
