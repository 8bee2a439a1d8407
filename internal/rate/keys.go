package rate

import (
	"crypto/sha256"
	"encoding/hex"
)

// Identifiers and IPs are hashed into the key so raw emails and addresses
// never appear in Redis.
func hashed(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

func loginUserKey(identifier string) string {
	return "rl:lu:" + hashed(identifier)
}

func loginIPKey(ip string) string {
	return "rl:li:" + hashed(ip)
}

func refreshKey(sessionID string) string {
	return "rl:rf:" + sessionID
}
