package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	saltLen             = 16

	digestPrefix = "argon2id"
)

// HashPassword produces an opaque digest string: "argon2id$<salt>$<key>"
// with base64 raw-std parts. The pepper is appended to the password before
// hashing and never stored.
func HashPassword(password, pepper string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	input := append([]byte(password), []byte(pepper)...)
	key := argon2.IDKey(input, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("%s$%s$%s",
		digestPrefix,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches digest. Malformed digests
// and any internal error map to false; verification never propagates errors
// to the login path.
func VerifyPassword(password, pepper, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 3 || parts[0] != digestPrefix {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return false
	}
	input := append([]byte(password), []byte(pepper)...)
	key := argon2.IDKey(input, salt, argonTime, argonMemory, argonThreads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func MustHashPassword(password, pepper string) string {
	d, err := HashPassword(password, pepper)
	if err != nil {
		panic(err)
	}
	return d
}
