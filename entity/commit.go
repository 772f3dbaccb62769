package entity

import (
	"encoding/json"
	"fmt"

	"github.com/moonstripe/indra-go/hash"
)

// Commit is an immutable snapshot of the graph state: a tree root plus
// ancestry. Initial commits have no parents; merge commits have at least two.
type Commit struct {
	Tree      hash.Hash       `json:"tree"`
	Parents   []hash.Hash     `json:"parents"`
	Message   string          `json:"message"`
	Author    string          `json:"author"`
	Timestamp uint64          `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// NewCommit constructs a commit with an explicit parent set.
func NewCommit(tree hash.Hash, parents []hash.Hash, message, author string) *Commit {
	return &Commit{
		Tree:      tree,
		Parents:   parents,
		Message:   message,
		Author:    author,
		Timestamp: nowMillis(),
	}
}

// InitialCommit constructs the root commit of a history (no parents).
func InitialCommit(tree hash.Hash, message, author string) *Commit {
	return NewCommit(tree, nil, message, author)
}

// ChildCommit constructs a commit with a single parent.
func ChildCommit(tree, parent hash.Hash, message, author string) *Commit {
	return NewCommit(tree, []hash.Hash{parent}, message, author)
}

// MergeCommit constructs a commit with two or more parents.
func MergeCommit(tree hash.Hash, parents []hash.Hash, message, author string) *Commit {
	if len(parents) < 2 {
		panic("entity: merge commit requires at least 2 parents")
	}
	return NewCommit(tree, parents, message, author)
}

// WithMetadata attaches an arbitrary JSON value to the commit.
func (c *Commit) WithMetadata(v any) (*Commit, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("entity: encode commit metadata: %w", err)
	}
	c.Metadata = encoded
	return c, nil
}

// IsInitial reports whether this commit has no parents.
func (c *Commit) IsInitial() bool {
	return len(c.Parents) == 0
}

// IsMerge reports whether this commit has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Hash computes the commit's content hash over its canonical serialization.
func (c *Commit) Hash() (hash.Hash, error) {
	data, err := MarshalCanonical(c)
	if err != nil {
		return hash.Zero, err
	}
	return hash.Digest(data), nil
}
