package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// PayloadEncryptor handles server-side encryption of record payloads at rest.
// NOTE: This is NOT zero-knowledge encryption: the server holds the key and
// sees plaintext payloads. It only protects data in the database itself.
type PayloadEncryptor struct {
	key []byte
}

// NewPayloadEncryptor builds an encryptor from a 32-byte hex key. When the
// key is empty, one is derived from the passphrase.
func NewPayloadEncryptor(keyHex, passphrase string) (*PayloadEncryptor, error) {
	var key []byte

	if keyHex != "" {
		var err error
		key, err = hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("invalid payload key (must be 32 bytes hex)")
		}
	} else {
		if passphrase == "" {
			passphrase = "default-payload-passphrase-change-in-production"
		}
		hash := sha256.Sum256([]byte(passphrase))
		key = hash[:]
	}

	return &PayloadEncryptor{key: key}, nil
}

// Encrypt encrypts data using AES-256-GCM
func (e *PayloadEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts data encrypted with Encrypt
func (e *PayloadEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}
