// Package token generates the opaque invite token strings embedded in
// shareable links.
//
// Tokens are 16 bytes from crypto/rand encoded as lowercase hex, so the
// resulting strings are 32 characters, URL-safe, and carry no structure a
// client could decode. Uniqueness is enforced by the database, not here;
// the issuing service retries on the (vanishingly rare) collision.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Length is the character length of every generated token.
const Length = 32

// New returns a fresh random token string.
func New() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("token.New: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// WellFormed reports whether s has the shape of a generated token
// (32 lowercase hex characters). It says nothing about whether the token
// exists; lookups treat malformed and unknown tokens identically.
func WellFormed(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
