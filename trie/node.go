// Package trie implements the persistent, structurally-shared merkle radix
// trie that maps byte keys to content hashes (spec.md §4.2). Node shapes
// mirror a plain byte-key radix trie with path compression: Empty, Leaf
// (key suffix + value), and Branch (consumed prefix + sparse byte-indexed
// children + an optional value for keys that end exactly at this branch).
package trie

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/moonstripe/indra-go/errs"
	"github.com/moonstripe/indra-go/hash"
)

// Kind discriminates the three node shapes.
type Kind byte

const (
	KindEmpty  Kind = 0
	KindLeaf   Kind = 1
	KindBranch Kind = 2
)

// Node is a trie node. Which fields are meaningful depends on Kind: Leaf
// uses Prefix (its key suffix) and Value; Branch uses Prefix, Children, and
// optionally Value.
type Node struct {
	Kind     Kind
	Prefix   []byte // Leaf: key suffix. Branch: consumed prefix.
	Children map[byte]hash.Hash
	Value    hash.Hash
	HasValue bool
}

// Empty is the canonical empty node.
func Empty() Node { return Node{Kind: KindEmpty} }

func leaf(suffix []byte, value hash.Hash) Node {
	return Node{Kind: KindLeaf, Prefix: cloneBytes(suffix), Value: value, HasValue: true}
}

func branch(prefix []byte) Node {
	return Node{Kind: KindBranch, Prefix: cloneBytes(prefix), Children: make(map[byte]hash.Hash)}
}

// IsEmpty reports whether n is the Empty node (no keys beneath it).
func (n Node) IsEmpty() bool {
	return n.Kind == KindEmpty
}

// Hash computes the node's content hash over its canonical byte encoding.
// Per spec.md §4.2, two nodes with the same logical contents always produce
// the same hash regardless of how they were built.
func (n Node) Hash() hash.Hash {
	if n.Kind == KindEmpty {
		return hash.Zero
	}
	return hash.Digest(n.encode())
}

// encode produces the canonical, deterministic byte encoding used both for
// hashing and for on-disk persistence as a Tree blob.
func (n Node) encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(n.Kind))

	switch n.Kind {
	case KindLeaf:
		writeBytes(&buf, n.Prefix)
		buf.Write(n.Value.Bytes())

	case KindBranch:
		writeBytes(&buf, n.Prefix)
		if n.HasValue {
			buf.WriteByte(1)
			buf.Write(n.Value.Bytes())
		} else {
			buf.WriteByte(0)
		}
		keys := make([]byte, 0, len(n.Children))
		for k := range n.Children {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		var countBuf [2]byte
		binary.LittleEndian.PutUint16(countBuf[:], uint16(len(keys)))
		buf.Write(countBuf[:])
		for _, k := range keys {
			buf.WriteByte(k)
			buf.Write(n.Children[k].Bytes())
		}
	}
	return buf.Bytes()
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func decodeNode(data []byte) (Node, error) {
	if len(data) < 1 {
		return Node{}, errs.Corruptionf("trie node: empty record")
	}
	kind := Kind(data[0])
	rest := data[1:]

	switch kind {
	case KindLeaf:
		suffix, rest, err := readBytes(rest)
		if err != nil {
			return Node{}, err
		}
		if len(rest) < hash.Size {
			return Node{}, errs.Corruptionf("trie leaf: truncated value hash")
		}
		v, err := hash.FromBytes(rest[:hash.Size])
		if err != nil {
			return Node{}, err
		}
		return leaf(suffix, v), nil

	case KindBranch:
		prefix, rest, err := readBytes(rest)
		if err != nil {
			return Node{}, err
		}
		if len(rest) < 1 {
			return Node{}, errs.Corruptionf("trie branch: truncated value flag")
		}
		hasValue := rest[0] == 1
		rest = rest[1:]
		n := branch(prefix)
		if hasValue {
			if len(rest) < hash.Size {
				return Node{}, errs.Corruptionf("trie branch: truncated value hash")
			}
			v, err := hash.FromBytes(rest[:hash.Size])
			if err != nil {
				return Node{}, err
			}
			n.Value = v
			n.HasValue = true
			rest = rest[hash.Size:]
		}
		if len(rest) < 2 {
			return Node{}, errs.Corruptionf("trie branch: truncated child count")
		}
		count := int(binary.LittleEndian.Uint16(rest[:2]))
		rest = rest[2:]
		for i := 0; i < count; i++ {
			if len(rest) < 1+hash.Size {
				return Node{}, errs.Corruptionf("trie branch: truncated child entry")
			}
			key := rest[0]
			childHash, err := hash.FromBytes(rest[1 : 1+hash.Size])
			if err != nil {
				return Node{}, err
			}
			n.Children[key] = childHash
			rest = rest[1+hash.Size:]
		}
		return n, nil

	default:
		return Node{}, errs.Corruptionf("trie node: unknown kind %d", kind)
	}
}

func readBytes(data []byte) ([]byte, []byte, error) {
	if len(data) < 2 {
		return nil, nil, errs.Corruptionf("trie node: truncated length prefix")
	}
	n := int(binary.LittleEndian.Uint16(data[:2]))
	data = data[2:]
	if len(data) < n {
		return nil, nil, errs.Corruptionf("trie node: truncated byte field")
	}
	return data[:n], data[n:], nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
