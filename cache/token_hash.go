package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes a refresh token before it is used as a store key.
// Raw tokens never touch the store, and the fixed-length key is cheaper
// to look up than the token itself.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
