package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// HashPassword derives a scrypt hash for storage, as base64(salt || key).
func HashPassword(password []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(append(salt, key...)), nil
}

// VerifyPassword checks a password against a stored hash in constant time.
func VerifyPassword(hash string, password []byte) bool {
	raw, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(raw) != saltLen+scryptKeyLen {
		return false
	}
	key, err := scrypt.Key(password, raw[:saltLen], scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, raw[saltLen:]) == 1
}
