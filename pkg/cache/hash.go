package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey derives a cache key from a product prefix plus the content hash
// and option struct that identify it. The key format is prefix:hash(parts).
// The full SHA-256 digest is kept: embedding keys fold float64 options in,
// and truncation would invite collisions between near-identical runs.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes the SHA-256 content hash used to identify datasets, graphs,
// and embeddings. Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
