package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const rawTokenBytes = 32

// GenerateRawToken returns 256 bits of cryptographically secure entropy,
// hex-encoded. The raw value goes to the user and is never persisted.
func GenerateRawToken() (string, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest of a raw token. Tokens are already
// high-entropy random values, so a fast unsalted digest is sufficient here;
// passwords go through Argon2id instead.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// VerifyTokenHash compares a candidate raw token against a stored digest in
// constant time over the full fixed-length digests.
func VerifyTokenHash(raw, storedHash string) bool {
	candidate := sha256.Sum256([]byte(raw))
	stored, err := hex.DecodeString(storedHash)
	if err != nil || len(stored) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(candidate[:], stored) == 1
}
