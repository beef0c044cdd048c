package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// MinSecretSize is the smallest session signing secret accepted by the application.
const MinSecretSize = 32

// NewSecret returns size random bytes encoded as base64url without padding.
// The encoded form is longer than size, so it always satisfies a byte-length floor of size.
func NewSecret(size int) (string, error) {
	if size < MinSecretSize {
		return "", errors.New("secret size below minimum")
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
