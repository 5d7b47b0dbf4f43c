package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// A refresh credential handed to the client is "<token-id>.<secret>".
// The id is the database primary key; only a digest of the secret is
// persisted, so a leaked table never yields usable credentials while
// lookup stays O(1) by id.

const refreshSecretLen = 32

// NewRefreshToken mints a fresh id+secret pair. It returns the composite
// string for the client, the token id, and the digest to persist.
func NewRefreshToken() (composite, id, secretHash string, err error) {
	buf := make([]byte, refreshSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("read refresh secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)
	id = uuid.NewString()
	return id + "." + secret, id, HashRefreshSecret(secret), nil
}

// ParseRefreshToken splits a composite token into id and secret.
// The id must be a well-formed UUID; the secret is opaque.
func ParseRefreshToken(composite string) (id, secret string, ok bool) {
	id, secret, found := strings.Cut(composite, ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", false
	}
	return id, secret, true
}

// HashRefreshSecret digests the secret half for storage. The secret is
// 256 bits of CSPRNG output, so a plain digest is not brute-forceable.
func HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyRefreshSecret compares a presented secret against the stored
// digest in constant time.
func VerifyRefreshSecret(secret, storedHash string) bool {
	computed := HashRefreshSecret(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
