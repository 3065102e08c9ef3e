// Package pkce generates the Proof Key for Code Exchange parameters
// (RFC 7636) used to bind an authorization code to the client that
// requested it.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// entropyBytes is the source entropy for verifiers and state values.
const entropyBytes = 32

// NewVerifier returns a high-entropy code verifier, URL-safe base64
// encoded without padding.
func NewVerifier() (string, error) {
	return randomString()
}

// NewState returns a fresh state parameter with the same encoding as a
// verifier. State values are single-use CSRF nonces.
func NewState() (string, error) {
	return randomString()
}

// Challenge derives the S256 code challenge from a verifier: the
// URL-safe base64 encoding of the SHA-256 digest of its ASCII bytes.
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// ChallengeMethod is the only challenge method this client emits.
const ChallengeMethod = "S256"

func randomString() (string, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		// An entropy failure must abort request handling, never fall
		// back to a weaker generator.
		return "", errors.Wrap(err, "[pkce] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
