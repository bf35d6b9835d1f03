package ai

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"ideascope/internal/errors"
)

// Vault encrypts and decrypts provider API keys at rest. AES-GCM with a fresh
// random nonce per call, nonce prepended to the ciphertext, base64 encoded for
// storage. Stateless beyond the master key.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a vault keyed by the master key (16, 24 or 32 bytes).
func NewVault(masterKey []byte) (*Vault, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, errors.CredentialError("invalid master key length", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.CredentialError("failed to initialize cipher", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt encrypts a plaintext API key for storage. Two encryptions of the
// same plaintext produce different ciphertext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.CredentialError("failed to generate nonce", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers a plaintext API key from storage. Fails with a credential
// error when the ciphertext is malformed or was sealed under a different key;
// the error never contains key material.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", errors.CredentialError("stored credential is not valid base64", err)
	}

	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.CredentialError("stored credential is truncated", nil)
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.CredentialError("credential decryption failed", err)
	}
	return string(plaintext), nil
}
