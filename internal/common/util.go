package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandURLSafeString returns size random bytes encoded with unpadded
// URL-safe base64. Thirty-two bytes give a 43 character token that can be
// embedded in a link without escaping.
func MakeRandURLSafeString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
