package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// One-time token TTLs. Reset links are short-lived; verification links give
// the user a day.
const (
	ResetTokenTTL  = 10 * time.Minute
	VerifyTokenTTL = 24 * time.Hour
)

// NewOneTimeToken returns the raw token (20 random bytes, hex) together with
// the sha256 digest that gets persisted. Only the digest is ever stored.
func NewOneTimeToken() (raw, hashed string, err error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, HashToken(raw), nil
}

// HashToken derives the stored form of a raw one-time token. Lookup works by
// hashing the presented token and comparing stored values.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
