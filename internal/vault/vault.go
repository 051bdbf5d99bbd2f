// Package vault encrypts student secret keys at rest.
//
// Ciphertexts are self-contained: each one carries its own random salt and
// nonce, so the only long-lived secret is the master key held by the Vault.
// The envelope is base64(salt || nonce || AES-256-GCM ciphertext), with the
// AES key derived from the master key and the salt via scrypt.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the per-ciphertext key derivation.
	//
	// N=2^15 keeps a single encrypt/decrypt in the tens of milliseconds,
	// which matters here because every signing request derives a key. The
	// master key itself is high entropy, so the derivation is hardening,
	// not the only line of defense.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
	nonceLen     = 12

	minMasterKeyLen = 16
)

var (
	// ErrMasterKey means the master key is absent or malformed. Fatal:
	// the process must not serve traffic without a usable master key.
	ErrMasterKey = errors.New("master encryption key missing or too short")

	// ErrDecrypt means a ciphertext failed to decrypt: tampered,
	// truncated, or encrypted under a different master key. Retrying
	// cannot succeed.
	ErrDecrypt = errors.New("failed to decrypt secret")
)

// Vault performs symmetric encryption of secrets with a server-held
// master key. It is stateless and safe for concurrent use.
type Vault struct {
	masterKey []byte
}

// New creates a Vault from the master key. The key is copied; the caller
// may zero its own slice afterwards.
func New(masterKey []byte) (*Vault, error) {
	if len(masterKey) < minMasterKeyLen {
		return nil, ErrMasterKey
	}
	mk := make([]byte, len(masterKey))
	copy(mk, masterKey)
	return &Vault{masterKey: mk}, nil
}

// Encrypt seals plaintext into an opaque base64 envelope.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := v.cipherFor(salt)
	if err != nil {
		return "", err
	}

	envelope := make([]byte, 0, saltLen+nonceLen+len(plaintext)+aesGCM.Overhead())
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce...)
	envelope = aesGCM.Seal(envelope, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// EncryptString is Encrypt for string secrets such as Stellar seeds.
func (v *Vault) EncryptString(plaintext string) (string, error) {
	buf := []byte(plaintext)
	defer clear(buf)
	return v.Encrypt(buf)
}

// Decrypt opens an envelope produced by Encrypt. The caller should zero
// the returned slice as soon as the secret is no longer needed.
func (v *Vault) Decrypt(ciphertext string) ([]byte, error) {
	envelope, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", ErrDecrypt)
	}
	if len(envelope) < saltLen+nonceLen+1 {
		return nil, fmt.Errorf("%w: envelope too short", ErrDecrypt)
	}

	salt := envelope[:saltLen]
	nonce := envelope[saltLen : saltLen+nonceLen]
	sealed := envelope[saltLen+nonceLen:]

	aesGCM, err := v.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		// GCM authentication failed. Deliberately does not include
		// the underlying error or any key material.
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (v *Vault) cipherFor(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(v.masterKey, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
