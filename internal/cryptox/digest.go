package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// KeyDigest is the at-rest form of a connection key: HMAC-SHA256 under the
// server secret, hex encoded. It is deterministic, so the store can index
// and look up by it directly.
func KeyDigest(secret []byte, key string) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(key))
	return hex.EncodeToString(m.Sum(nil))
}
