package misc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashHeader carries the payload signature on requests and responses.
const HashHeader = "HashSHA256"

// SumSHA256 signs value with key as hex(sha256(value || key)).
func SumSHA256(value []byte, key string) string {
	h := sha256.New()
	h.Write(value)
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySHA256 compares a received hex signature with the expected one in constant time.
func VerifySHA256(value []byte, key, got string) bool {
	want := SumSHA256(value, key)
	return hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(got))), []byte(want))
}
