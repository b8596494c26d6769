// Package token issues the opaque bearer secrets used for share links and
// password resets. Tokens carry 32 bytes of entropy and are URL-safe; the
// database keeps a uniqueness constraint on every token column, and callers
// regenerate on conflict rather than trusting randomness alone.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const entropyBytes = 32

// New returns a fresh URL-safe bearer token. Failure of the system entropy
// source is not recoverable.
func New() string {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("token: entropy source failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
