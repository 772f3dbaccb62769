// Package blob defines the typed, compressed byte container that the object
// store persists. The type tag is part of the content-hash domain so that
// identical bytes stored under different types never alias to the same hash.
package blob

import (
	"fmt"

	"github.com/DataDog/zstd"

	"github.com/moonstripe/indra-go/hash"
)

// Type enumerates the kinds of records the store can hold.
type Type byte

const (
	Thought Type = 0
	Edge    Type = 1
	Commit  Type = 2
	Tree    Type = 3
)

// compressionLevel matches the original implementation's zstd level.
const compressionLevel = 3

func (t Type) String() string {
	switch t {
	case Thought:
		return "thought"
	case Edge:
		return "edge"
	case Commit:
		return "commit"
	case Tree:
		return "tree"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Valid reports whether t is one of the known type tags.
func (t Type) Valid() bool {
	return t <= Tree
}

// Blob pairs a type tag with an uncompressed payload.
type Blob struct {
	Type Type
	Data []byte
}

// New constructs a Blob.
func New(t Type, data []byte) Blob {
	return Blob{Type: t, Data: data}
}

// Hash computes the content hash over [type_byte || data], so the type tag
// is part of the hash domain.
func (b Blob) Hash() hash.Hash {
	return hash.DigestMany([]byte{byte(b.Type)}, b.Data)
}

// Compress encodes the blob for on-disk storage: a single type byte followed
// by the zstd-compressed payload.
func (b Blob) Compress() ([]byte, error) {
	compressed, err := zstd.CompressLevel(nil, b.Data, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("blob: compress: %w", err)
	}
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, byte(b.Type))
	out = append(out, compressed...)
	return out, nil
}

// Decompress reverses Compress, reading the type byte first and validating it.
func Decompress(data []byte) (Blob, error) {
	if len(data) < 1 {
		return Blob{}, fmt.Errorf("blob: record too short")
	}
	t := Type(data[0])
	if !t.Valid() {
		return Blob{}, fmt.Errorf("blob: unknown type tag %d", data[0])
	}
	payload, err := zstd.Decompress(nil, data[1:])
	if err != nil {
		return Blob{}, fmt.Errorf("blob: decompress: %w", err)
	}
	return Blob{Type: t, Data: payload}, nil
}
