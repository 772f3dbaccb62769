// Package hash implements the 256-bit content digest used throughout
// indra_db to address blobs, trie nodes, and commits.
package hash

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = 32

// ErrInvalidLength is returned when decoding a hex string of the wrong length.
var ErrInvalidLength = errors.New("hash: invalid hex length")

// Hash is an opaque 32-byte content digest. The zero value is the reserved
// sentinel meaning "no hash" (e.g. an empty trie's root).
type Hash [Size]byte

// Zero is the reserved sentinel hash.
var Zero = Hash{}

// Digest computes the hash of a single byte slice.
func Digest(data []byte) Hash {
	return DigestMany(data)
}

// DigestMany computes the hash over the concatenation of all parts, without
// allocating an intermediate concatenated buffer.
func DigestMany(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for a bad MAC key, and we never pass one.
		panic(fmt.Sprintf("hash: blake2b init: %v", err))
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether h is the sentinel zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns the digest as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String renders the full lower-case hex digest.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short renders the first 7 hex characters, for log lines and CLI output.
func (h Hash) Short() string {
	s := h.String()
	if len(s) < 7 {
		return s
	}
	return s[:7]
}

// FromHex parses a lower- or upper-case hex string into a Hash. The input
// must decode to exactly Size bytes.
func FromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("hash: %w", err)
	}
	if len(b) != Size {
		return Zero, ErrInvalidLength
	}
	var out Hash
	copy(out[:], b)
	return out, nil
}

// FromBytes copies raw bytes into a Hash. len(b) must equal Size.
func FromBytes(b []byte) (Hash, error) {
	if len(b) != Size {
		return Zero, ErrInvalidLength
	}
	var out Hash
	copy(out[:], b)
	return out, nil
}

// Less reports whether h sorts before other, byte-wise.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}
