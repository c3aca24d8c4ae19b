// Package keys provides encryption for provider credentials at rest.
// Access tokens returned by the ledger provider are sealed with AES-256-GCM
// before they are written to the database; the cipher key is derived from a
// server master key with HKDF so the master key itself never touches AES.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// CredentialCipher seals and opens provider credentials with a key derived
// from the server master key.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher derives an AES-256-GCM cipher from the master key.
// The master key must be 32 bytes.
func NewCredentialCipher(masterKey []byte) (*CredentialCipher, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes (AES-256)")
	}

	// Derive the AES key with HKDF so the raw master key is never used directly
	info := []byte("balai-credential-v1")
	hkdfReader := hkdf.New(sha256.New, masterKey, nil, info)

	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, aesKey); err != nil {
		return nil, fmt.Errorf("failed to derive credential key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CredentialCipher{aead: gcm}, nil
}

// EncryptCredential encrypts a credential using AES-256-GCM.
// Returns a base64-encoded string containing: nonce || ciphertext || tag
func (c *CredentialCipher) EncryptCredential(credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("credential must not be empty")
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nonce, nonce, []byte(credential), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredential decrypts an encrypted credential.
// The encrypted string should be base64-encoded containing: nonce || ciphertext || tag
func (c *CredentialCipher) DecryptCredential(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// GenerateMasterKey generates a new random 32-byte master key for sealing credentials.
// This should be stored securely (environment variable, secrets manager, etc.)
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// MasterKeyFromBase64 decodes a base64-encoded master key
func MasterKeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// MasterKeyToBase64 encodes a master key as base64 for storage
func MasterKeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
