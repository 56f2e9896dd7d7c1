package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body
const SignatureHeader = "X-Signature"

func computeHMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Sign returns the hex signature of body under secret
func Sign(secret string, body []byte) string {
	return hex.EncodeToString(computeHMACSHA256([]byte(secret), body))
}

// VerifySignature reports whether signature is the HMAC of body under
// secret. An empty secret never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, computeHMACSHA256([]byte(secret), body))
}
