package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash means the stored value is not an argon2id hash this
// package produced.
var ErrMalformedHash = errors.New("malformed password hash")

// Hash cost parameters. Changing them only affects newly hashed
// passwords; verification reads the parameters back out of the stored
// hash.
const (
	argonMemoryKiB = 64 * 1024
	argonTime      = 3
	argonThreads   = 2
	argonSaltLen   = 16
	argonKeyLen    = 32
)

// HashPassword derives an argon2id hash and encodes it in the standard
// `$argon2id$v=19$m=...,t=...,p=...$salt$key` form.
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemoryKiB, argonThreads, argonKeyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKiB, argonTime, argonThreads,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. A
// non-nil error means the hash itself is unusable, not that the
// password was wrong.
func VerifyPassword(hash, plaintext string) (bool, error) {
	memory, iterations, threads, salt, key, err := decodeArgon2idHash(hash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, iterations, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2idHash(hash string) (memory, iterations uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil || n != 3 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad cost parameters", ErrMalformedHash)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}

	return memory, iterations, threads, salt, key, nil
}
