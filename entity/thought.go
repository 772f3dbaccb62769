// Package entity defines the Thought (node), Edge, and Commit records that
// the trie addresses by content hash, and their canonical serialization.
package entity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moonstripe/indra-go/hash"
)

// ThoughtID is the stable string identifier of a graph node.
type ThoughtID string

// GenerateThoughtID produces a short, collision-resistant id derived from
// the current time and a small amount of randomness, for callers that don't
// supply their own id.
func GenerateThoughtID() ThoughtID {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return ThoughtID(fmt.Sprintf("t-%x-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix[:])))
}

// Thought is a graph node: stable id, text content, optional type and
// embedding, and a JSON-valued attribute map.
type Thought struct {
	ID          ThoughtID         `json:"id"`
	Content     string            `json:"content"`
	ThoughtType string            `json:"thought_type,omitempty"`
	Embedding   []float32         `json:"embedding,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	CreatedAt   uint64            `json:"created_at"`
	ModifiedAt  uint64            `json:"modified_at"`
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// NewThought constructs a thought with a generated id.
func NewThought(content string) *Thought {
	return NewThoughtWithID(GenerateThoughtID(), content)
}

// NewThoughtWithID constructs a thought with a caller-supplied id.
func NewThoughtWithID(id ThoughtID, content string) *Thought {
	now := nowMillis()
	return &Thought{
		ID:         id,
		Content:    content,
		Attrs:      make(map[string]string),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// WithType sets the thought's type string and returns the thought for chaining.
func (t *Thought) WithType(thoughtType string) *Thought {
	t.ThoughtType = thoughtType
	return t
}

// WithEmbedding sets the thought's embedding vector and returns it for chaining.
func (t *Thought) WithEmbedding(embedding []float32) *Thought {
	t.Embedding = embedding
	return t
}

// SetAttr stores value under key as its canonical JSON text, per the
// encode-to-string mitigation spec.md §9 requires so entity hashes remain
// reproducible despite the binary-friendly on-disk encoding.
func (t *Thought) SetAttr(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("entity: encode attr %q: %w", key, err)
	}
	if t.Attrs == nil {
		t.Attrs = make(map[string]string)
	}
	t.Attrs[key] = string(encoded)
	return nil
}

// Attr decodes the JSON value stored under key into out.
func (t *Thought) Attr(key string, out any) (bool, error) {
	raw, ok := t.Attrs[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("entity: decode attr %q: %w", key, err)
	}
	return true, nil
}

// UpdateContent replaces the content, clears any embedding (it is now
// stale), and bumps the modification timestamp.
func (t *Thought) UpdateContent(content string) {
	t.Content = content
	t.Embedding = nil
	t.ModifiedAt = nowMillis()
}

// ContentHash hashes the full canonical serialization of the thought,
// including its timestamps: two thoughts with identical content created at
// different times hash differently by design (see spec.md §9 and DESIGN.md).
func (t *Thought) ContentHash() (hash.Hash, error) {
	data, err := MarshalCanonical(t)
	if err != nil {
		return hash.Zero, err
	}
	return hash.Digest(data), nil
}

// MarshalCanonical produces the stable byte encoding used both for content
// hashing and for on-disk blob payloads. Go's encoding/json already sorts
// map keys, so repeated encodes of an equal value are byte-identical.
func MarshalCanonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("entity: marshal: %w", err)
	}
	return data, nil
}
