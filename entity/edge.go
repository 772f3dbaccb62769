package entity

import (
	"fmt"

	"github.com/moonstripe/indra-go/hash"
)

// EdgeType is a caller-chosen label for a relationship. The constants below
// are convenience values carried over from the original implementation
// (original_source/src/model/edge.rs); arbitrary caller strings remain legal.
type EdgeType string

const (
	RelatesTo   EdgeType = "relates_to"
	Supports    EdgeType = "supports"
	Contradicts EdgeType = "contradicts"
	DerivesFrom EdgeType = "derives_from"
	PartOf      EdgeType = "part_of"
	SimilarTo   EdgeType = "similar_to"
	Causes      EdgeType = "causes"
	Precedes    EdgeType = "precedes"
)

// Edge is a typed, optionally-weighted link between two thoughts.
type Edge struct {
	Source    ThoughtID         `json:"source"`
	Target    ThoughtID         `json:"target"`
	EdgeType  EdgeType          `json:"edge_type"`
	Weight    float32           `json:"weight"`
	Directed  bool              `json:"directed"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	CreatedAt uint64            `json:"created_at"`
}

// NewEdge constructs a directed edge with the default weight of 1.0.
func NewEdge(source, target ThoughtID, edgeType EdgeType) *Edge {
	return &Edge{
		Source:    source,
		Target:    target,
		EdgeType:  edgeType,
		Weight:    1.0,
		Directed:  true,
		Attrs:     make(map[string]string),
		CreatedAt: nowMillis(),
	}
}

// NewUndirectedEdge constructs an undirected edge.
func NewUndirectedEdge(source, target ThoughtID, edgeType EdgeType) *Edge {
	e := NewEdge(source, target, edgeType)
	e.Directed = false
	return e
}

// WithWeight sets the edge's weight, clamping it into [0, 1].
func (e *Edge) WithWeight(weight float32) *Edge {
	switch {
	case weight < 0:
		weight = 0
	case weight > 1:
		weight = 1
	}
	e.Weight = weight
	return e
}

// SetAttr stores value under key as its canonical JSON text.
func (e *Edge) SetAttr(key string, value any) error {
	encoded, err := MarshalCanonical(value)
	if err != nil {
		return fmt.Errorf("entity: encode edge attr %q: %w", key, err)
	}
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[key] = string(encoded)
	return nil
}

// CanonicalKey is `source:target:type` for directed edges, or the
// lexicographically smaller of `a:b:type` / `b:a:type` for undirected ones,
// so an undirected edge has one canonical trie entry regardless of the
// order its endpoints were supplied in.
func (e *Edge) CanonicalKey() string {
	if e.Directed {
		return fmt.Sprintf("%s:%s:%s", e.Source, e.Target, e.EdgeType)
	}
	forward := fmt.Sprintf("%s:%s:%s", e.Source, e.Target, e.EdgeType)
	backward := fmt.Sprintf("%s:%s:%s", e.Target, e.Source, e.EdgeType)
	if forward <= backward {
		return forward
	}
	return backward
}

// ContentHash hashes the full canonical serialization of the edge.
func (e *Edge) ContentHash() (hash.Hash, error) {
	data, err := MarshalCanonical(e)
	if err != nil {
		return hash.Zero, err
	}
	return hash.Digest(data), nil
}
