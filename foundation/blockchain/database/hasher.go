package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Hasher names the digest algorithm used to link and solve blocks. The name
// is recorded with the ledger so a chain is always validated with the
// algorithm it was mined with.
type Hasher string

// Set of supported digest algorithms. Both produce 256 bit digests.
const (
	SHA256    Hasher = "sha256"
	Keccak256 Hasher = "keccak256"
)

// ParseHasher converts the string to a supported Hasher. An empty string
// selects SHA256.
func ParseHasher(name string) (Hasher, error) {
	switch Hasher(name) {
	case "", SHA256:
		return SHA256, nil
	case Keccak256:
		return Keccak256, nil
	}

	return "", fmt.Errorf("unknown hasher %q", name)
}

// Sum returns the hex encoded digest of the data.
func (h Hasher) Sum(data []byte) string {
	switch h {
	case Keccak256:
		return hex.EncodeToString(crypto.Keccak256(data))
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// String implements the fmt.Stringer interface.
func (h Hasher) String() string {
	if h == "" {
		return string(SHA256)
	}
	return string(h)
}
