package services

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credential codec: symmetric AES-256-CBC over a key derived from an
// environment secret. Output format is "<ivHex>:<cipherHex>" with a fresh
// random IV per call, so two encryptions of the same plaintext differ.

var (
	// ErrMissingSecret means the required secret environment variable is
	// absent. A deployment mistake, not a runtime condition.
	ErrMissingSecret = errors.New("encryption secret is not configured")

	// ErrMalformedToken means the input is not in "<ivHex>:<cipherHex>" form.
	ErrMalformedToken = errors.New("malformed encrypted token")

	// ErrDecryptFailed covers cipher and padding faults, which is what a
	// key mismatch looks like under CBC.
	ErrDecryptFailed = errors.New("decryption failed")
)

// deriveKey turns a secret of any length into a 32-byte AES key: the
// base64 encoding of its SHA-256 digest, truncated.
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	return []byte(encoded)[:32]
}

// Encrypt seals plaintext under the ENCRYPTION_KEY secret.
func Encrypt(plaintext string) (string, error) {
	secret := os.Getenv("ENCRYPTION_KEY")
	if secret == "" {
		return "", fmt.Errorf("ENCRYPTION_KEY: %w", ErrMissingSecret)
	}

	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt using the DECRYPTION_KEY secret. The two secrets
// are distinct variables but must be configured identically for the round
// trip to hold; a mismatch surfaces as ErrDecryptFailed.
func Decrypt(token string) (string, error) {
	secret := os.Getenv("DECRYPTION_KEY")
	if secret == "" {
		return "", fmt.Errorf("DECRYPTION_KEY: %w", ErrMissingSecret)
	}

	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedToken
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedToken
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedToken
	}

	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid padding byte")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("inconsistent padding")
		}
	}
	return data[:len(data)-padding], nil
}
