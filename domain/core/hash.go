package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex digits for logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// SettingsHash fingerprints the serialized form of chart settings.
type SettingsHash Hash

// NewSettingsHash hashes serialized settings. Surrounding whitespace does
// not change the fingerprint.
func NewSettingsHash(serialized string) SettingsHash {
	return SettingsHash(NewHash([]byte(strings.TrimSpace(serialized))))
}

func (h SettingsHash) String() string { return Hash(h).String() }
func (h SettingsHash) Short() string  { return Hash(h).Short() }
