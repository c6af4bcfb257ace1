package tagcodec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of s, used as the tag value
// for fields whose natural values might collide or overflow the 256-byte
// tag limit after escaping. Hashed tags only support equality.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
