package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

// GenerateToken returns a random URL-safe token built from length random bytes.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// TokensEqual compares two secrets in constant time. Both inputs are hashed
// first so the comparison takes the same path regardless of their lengths.
// An empty expected value never matches.
func TokensEqual(expected, supplied string) bool {
	want := sha256.Sum256([]byte(expected))
	got := sha256.Sum256([]byte(supplied))
	match := subtle.ConstantTimeCompare(want[:], got[:]) == 1
	return match && expected != ""
}
