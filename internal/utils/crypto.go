package utils

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DocumentHashConfig holds the Argon2id parameters used for buyer documents
type DocumentHashConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultDocumentHashConfig returns the default configuration for document hashing
func DefaultDocumentHashConfig() *DocumentHashConfig {
	return &DocumentHashConfig{
		Memory:      64 * 1024, // 64 MB
		Iterations:  1,
		Parallelism: 2,
		KeyLength:   32,
	}
}

// HashDocument hashes the digits of a buyer document (CPF) with Argon2id so
// receipts can be matched to a buyer without storing the document itself.
// The salt is an installation secret, which keeps the hash deterministic.
func HashDocument(document, salt string) (string, error) {
	digits := DigitsOnly(document)
	if digits == "" {
		return "", fmt.Errorf("document has no digits")
	}
	if salt == "" {
		return "", fmt.Errorf("document hash salt is required")
	}

	config := DefaultDocumentHashConfig()
	hash := argon2.IDKey([]byte(digits), []byte(salt), config.Iterations, config.Memory, config.Parallelism, config.KeyLength)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s",
		config.Memory, config.Iterations, config.Parallelism, base64.RawStdEncoding.EncodeToString(hash)), nil
}

// DocumentMatches reports whether document hashes to the given value
func DocumentMatches(document, salt, hash string) bool {
	computed, err := HashDocument(document, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
