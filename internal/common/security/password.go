package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns a fresh random per-record salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveHash derives the stored password hash from plaintext and salt.
// The result is a pure function of its inputs.
func DeriveHash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen)
}

// HashPassword salts and hashes a new password.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return DeriveHash(password, salt), salt, nil
}

// CheckPassword recomputes the hash with the stored salt and compares in constant time.
func CheckPassword(password string, hash, salt []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(DeriveHash(password, salt), hash) == 1
}
