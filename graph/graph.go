// Package graph provides a read-only projection of a committed trie state
// into an in-memory graph of thoughts and edges, with traversal helpers
// (neighbors, breadth-first search, shortest path).
package graph

import (
	"github.com/moonstripe/indra-go/blob"
	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/trie"
)

// Direction selects which edges to follow when computing neighbors.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

const (
	thoughtPrefix = "t:"
	edgePrefix    = "e:"
)

// objectStore is the subset of store.ObjectStore a View depends on.
type objectStore interface {
	Put(b blob.Blob) (hash.Hash, error)
	Get(h hash.Hash) (blob.Blob, error)
	GetThought(h hash.Hash) (*entity.Thought, error)
	GetEdge(h hash.Hash) (*entity.Edge, error)
}

// View is a read-only snapshot of the graph at a specific trie root,
// indexed once on construction for O(1) neighbor lookups.
type View struct {
	store *viewStore

	thoughtIndex map[entity.ThoughtID]hash.Hash
	edgesFrom    map[entity.ThoughtID][]hash.Hash
	edgesTo      map[entity.ThoughtID][]hash.Hash

	rootHash hash.Hash
}

// viewStore wraps the narrow objectStore interface so trie.FromRoot (which
// wants the blob.Put/Get shape) and graph (which additionally wants typed
// thought/edge getters) can share one underlying store reference.
type viewStore struct {
	objectStore
}

// NewView builds a view over the trie rooted at rootHash.
func NewView(s objectStore, rootHash hash.Hash) (*View, error) {
	vs := &viewStore{s}
	tr, err := trie.FromRoot(vs, rootHash)
	if err != nil {
		return nil, err
	}

	v := &View{
		store:        vs,
		thoughtIndex: make(map[entity.ThoughtID]hash.Hash),
		edgesFrom:    make(map[entity.ThoughtID][]hash.Hash),
		edgesTo:      make(map[entity.ThoughtID][]hash.Hash),
		rootHash:     tr.RootHash(),
	}

	thoughtEntries, err := tr.ListPrefix([]byte(thoughtPrefix))
	if err != nil {
		return nil, err
	}
	for _, e := range thoughtEntries {
		id := entity.ThoughtID(e.Key[len(thoughtPrefix):])
		v.thoughtIndex[id] = e.Value
	}

	edgeEntries, err := tr.ListPrefix([]byte(edgePrefix))
	if err != nil {
		return nil, err
	}
	for _, e := range edgeEntries {
		edge, err := s.GetEdge(e.Value)
		if err != nil {
			return nil, err
		}
		v.edgesFrom[edge.Source] = append(v.edgesFrom[edge.Source], e.Value)
		v.edgesTo[edge.Target] = append(v.edgesTo[edge.Target], e.Value)
	}

	return v, nil
}

// Empty builds a view with no thoughts or edges.
func Empty(s objectStore) (*View, error) {
	return NewView(s, hash.Zero)
}

// GetThought returns the thought with id, if present.
func (v *View) GetThought(id entity.ThoughtID) (*entity.Thought, error) {
	h, ok := v.thoughtIndex[id]
	if !ok {
		return nil, nil
	}
	return v.store.GetThought(h)
}

// HasThought reports whether id exists in this view.
func (v *View) HasThought(id entity.ThoughtID) bool {
	_, ok := v.thoughtIndex[id]
	return ok
}

// AllThoughts returns every thought in this view, in unspecified order.
func (v *View) AllThoughts() ([]*entity.Thought, error) {
	out := make([]*entity.Thought, 0, len(v.thoughtIndex))
	for _, h := range v.thoughtIndex {
		th, err := v.store.GetThought(h)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, nil
}

// ThoughtCount returns the number of thoughts in this view.
func (v *View) ThoughtCount() int {
	return len(v.thoughtIndex)
}

// RootHash returns the underlying trie's root hash.
func (v *View) RootHash() hash.Hash {
	return v.rootHash
}

// Neighbor pairs a neighboring thought with the edge that connects it.
type Neighbor struct {
	Thought *entity.Thought
	Edge    *entity.Edge
}

// Neighbors returns the thoughts connected to id by direction, optionally
// filtered to a single edge type. Edges whose endpoint can't be resolved to
// a thought in this view are silently skipped.
func (v *View) Neighbors(id entity.ThoughtID, direction Direction, edgeType *entity.EdgeType) ([]Neighbor, error) {
	var edgeHashes []hash.Hash
	switch direction {
	case Outgoing:
		edgeHashes = v.edgesFrom[id]
	case Incoming:
		edgeHashes = v.edgesTo[id]
	case Both:
		edgeHashes = append(edgeHashes, v.edgesFrom[id]...)
		edgeHashes = append(edgeHashes, v.edgesTo[id]...)
	}

	var results []Neighbor
	for _, h := range edgeHashes {
		edge, err := v.store.GetEdge(h)
		if err != nil {
			return nil, err
		}
		if edgeType != nil && edge.EdgeType != *edgeType {
			continue
		}

		var neighborID entity.ThoughtID
		switch direction {
		case Outgoing:
			neighborID = edge.Target
		case Incoming:
			neighborID = edge.Source
		case Both:
			if edge.Source == id {
				neighborID = edge.Target
			} else {
				neighborID = edge.Source
			}
		}

		thought, err := v.GetThought(neighborID)
		if err != nil {
			return nil, err
		}
		if thought == nil {
			continue
		}
		results = append(results, Neighbor{Thought: thought, Edge: edge})
	}
	return results, nil
}

// EdgesBetween returns every edge from source directly to target.
func (v *View) EdgesBetween(source, target entity.ThoughtID) ([]*entity.Edge, error) {
	var results []*entity.Edge
	for _, h := range v.edgesFrom[source] {
		edge, err := v.store.GetEdge(h)
		if err != nil {
			return nil, err
		}
		if edge.Target == target {
			results = append(results, edge)
		}
	}
	return results, nil
}

// VisitedThought pairs a thought reached during BFS with its depth from the
// traversal's start.
type VisitedThought struct {
	Thought *entity.Thought
	Depth   int
}

// BFS performs a breadth-first traversal from start, following direction and
// bounded by maxDepth (nil means unbounded). The start thought itself is
// included at depth 0.
func (v *View) BFS(start entity.ThoughtID, direction Direction, maxDepth *int) ([]VisitedThought, error) {
	startThought, err := v.GetThought(start)
	if err != nil {
		return nil, err
	}
	if startThought == nil {
		return nil, nil
	}

	visited := map[entity.ThoughtID]bool{start: true}
	var results []VisitedThought
	results = append(results, VisitedThought{Thought: startThought, Depth: 0})

	type queued struct {
		id    entity.ThoughtID
		depth int
	}
	queue := []queued{{id: start, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if maxDepth != nil && current.depth >= *maxDepth {
			continue
		}

		neighbors, err := v.Neighbors(current.id, direction, nil)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if visited[n.Thought.ID] {
				continue
			}
			visited[n.Thought.ID] = true
			results = append(results, VisitedThought{Thought: n.Thought, Depth: current.depth + 1})
			queue = append(queue, queued{id: n.Thought.ID, depth: current.depth + 1})
		}
	}
	return results, nil
}

// ShortestPath finds the shortest undirected path between from and to,
// returning nil if no path exists.
func (v *View) ShortestPath(from, to entity.ThoughtID) ([]entity.ThoughtID, error) {
	if from == to {
		return []entity.ThoughtID{from}, nil
	}

	visited := map[entity.ThoughtID]bool{from: true}
	predecessors := make(map[entity.ThoughtID]entity.ThoughtID)
	queue := []entity.ThoughtID{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors, err := v.Neighbors(current, Both, nil)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			id := n.Thought.ID
			if visited[id] {
				continue
			}
			visited[id] = true
			predecessors[id] = current

			if id == to {
				path := []entity.ThoughtID{to}
				curr := to
				for {
					pred, ok := predecessors[curr]
					if !ok {
						break
					}
					path = append(path, pred)
					curr = pred
				}
				reverseThoughtIDs(path)
				return path, nil
			}
			queue = append(queue, id)
		}
	}
	return nil, nil
}

func reverseThoughtIDs(s []entity.ThoughtID) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
