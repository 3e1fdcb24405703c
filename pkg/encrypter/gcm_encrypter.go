package encrypter

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// GCMEncrypter seals continuation tokens with AES-256-GCM. A fresh nonce is
// generated per call and prepended to the ciphertext.
type GCMEncrypter struct {
	aead cipher.AEAD
}

var _ Encrypter = (*GCMEncrypter)(nil)

// NewGCMEncrypter derives a 256 bit key from the configured secret and returns
// an encrypter ready for use.
func NewGCMEncrypter(key string) (*GCMEncrypter, error) {
	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("build cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("build GCM mode: %w", err)
	}

	return &GCMEncrypter{aead: aead}, nil
}

// Encrypt seals data. Empty input passes through unchanged so an absent token
// stays absent.
func (e *GCMEncrypter) Encrypt(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return e.aead.Seal(nonce, nonce, data, nil), nil
}

// Decrypt opens data produced by Encrypt.
func (e *GCMEncrypter) Decrypt(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short: %d bytes with a %d byte nonce", len(data), nonceSize)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	return e.aead.Open(nil, nonce, sealed, nil)
}

// deriveKey hashes the secret down to the fixed AES-256 key length.
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
