package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher provides content-address keys
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hex digest of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// HashString computes a hex digest of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// URLKey returns the cache key for a page URL. Surrounding whitespace is
// ignored; everything else, including the query string, is significant.
func (h *Hasher) URLKey(url string) string {
	return h.HashString(strings.TrimSpace(url))
}

// ShortHash truncates a digest for display.
func ShortHash(full string) string {
	if len(full) < 8 {
		return full
	}
	return full[:8]
}
