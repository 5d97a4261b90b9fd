package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey maps arbitrary keys onto [0-9a-f]{64}, e.g. for NATS KV keys
func HashKey(arg string) string {
	sum := sha256.Sum256([]byte(arg))
	return hex.EncodeToString(sum[:])
}
