package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// AES-256 key length
	keyLength    = 32
	aesBlockSize = aes.BlockSize
	// IV hex length (16 bytes * 2 characters per byte)
	ivHexLength = 2 * aes.BlockSize
)

// ErrInvalidKey is returned when a sealing key is not a base64 encoded 32-byte value.
var ErrInvalidKey = errors.New("sealing key must be 32 bytes (AES-256)")

// ParseKey decodes a base64 encoded AES-256 key, as supplied through ENCRYPTION_KEY.
func ParseKey(keyBase64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64: %v", ErrInvalidKey, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	return key, nil
}

// NewEphemeralKey returns a random AES-256 key that lives only as long as the process.
func NewEphemeralKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	return key, nil
}

// Sealer encrypts key secrets at rest in memory with AES-256-CBC.
// The sealed form is base64(hex(IV) + hex(ciphertext)).
type Sealer struct {
	block cipher.Block
}

// NewSealer creates a Sealer for the given 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &Sealer{block: block}, nil
}

// Seal encrypts plainText with a fresh random IV.
func (s *Sealer) Seal(plainText string) (string, error) {
	iv := make([]byte, aesBlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad([]byte(plainText), aesBlockSize)
	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(cipherText, padded)

	combined := hex.EncodeToString(iv) + hex.EncodeToString(cipherText)
	return base64.StdEncoding.EncodeToString([]byte(combined)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	combinedHex := string(decoded)
	if len(combinedHex) < ivHexLength {
		return "", errors.New("invalid sealed value: too short to contain IV")
	}

	iv, err := hex.DecodeString(combinedHex[:ivHexLength])
	if err != nil {
		return "", fmt.Errorf("failed to decode IV from hex: %w", err)
	}
	cipherText, err := hex.DecodeString(combinedHex[ivHexLength:])
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext from hex: %w", err)
	}
	if len(cipherText) == 0 || len(cipherText)%aesBlockSize != 0 {
		return "", errors.New("ciphertext is not a multiple of the block size")
	}

	padded := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(padded, cipherText)

	plain, err := pkcs7Unpad(padded, aesBlockSize)
	if err != nil {
		return "", fmt.Errorf("failed to unpad plaintext: %w", err)
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("data length is not a multiple of block size")
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid pkcs7 padding: padding size is zero or exceeds block size")
	}
	for i := len(data) - padding; i < len(data); i++ {
		if data[i] != byte(padding) {
			return nil, errors.New("invalid pkcs7 padding: padding bytes are inconsistent")
		}
	}
	return data[:len(data)-padding], nil
}
