package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonstripe/indra-go/blob"
	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/trie"
)

// memStore is a minimal in-memory objectStore for graph tests.
type memStore struct {
	objects  map[hash.Hash]blob.Blob
	thoughts map[hash.Hash]*entity.Thought
	edges    map[hash.Hash]*entity.Edge
}

func newMemStore() *memStore {
	return &memStore{
		objects:  make(map[hash.Hash]blob.Blob),
		thoughts: make(map[hash.Hash]*entity.Thought),
		edges:    make(map[hash.Hash]*entity.Edge),
	}
}

func (m *memStore) Put(b blob.Blob) (hash.Hash, error) {
	h := b.Hash()
	m.objects[h] = b
	return h, nil
}

func (m *memStore) Get(h hash.Hash) (blob.Blob, error) {
	b, ok := m.objects[h]
	if !ok {
		return blob.Blob{}, errNotFound
	}
	return b, nil
}

func (m *memStore) putThought(th *entity.Thought) hash.Hash {
	h, err := th.ContentHash()
	if err != nil {
		panic(err)
	}
	m.thoughts[h] = th
	return h
}

func (m *memStore) putEdge(e *entity.Edge) hash.Hash {
	h, err := e.ContentHash()
	if err != nil {
		panic(err)
	}
	m.edges[h] = e
	return h
}

func (m *memStore) GetThought(h hash.Hash) (*entity.Thought, error) {
	th, ok := m.thoughts[h]
	if !ok {
		return nil, errNotFound
	}
	return th, nil
}

func (m *memStore) GetEdge(h hash.Hash) (*entity.Edge, error) {
	e, ok := m.edges[h]
	if !ok {
		return nil, errNotFound
	}
	return e, nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "object not found" }

func TestEmptyGraph(t *testing.T) {
	s := newMemStore()
	v, err := Empty(s)
	require.NoError(t, err)

	require.Equal(t, 0, v.ThoughtCount())
	th, err := v.GetThought("nonexistent")
	require.NoError(t, err)
	require.Nil(t, th)
}

func buildTrie(t *testing.T, s *memStore) *trie.Trie {
	t.Helper()
	return trie.New(s)
}

func TestGraphWithThoughts(t *testing.T) {
	s := newMemStore()

	t1 := entity.NewThoughtWithID("t1", "First thought")
	t2 := entity.NewThoughtWithID("t2", "Second thought")
	h1 := s.putThought(t1)
	h2 := s.putThought(t2)

	tr := buildTrie(t, s)
	require.NoError(t, tr.Insert([]byte("t:t1"), h1))
	require.NoError(t, tr.Insert([]byte("t:t2"), h2))
	root, err := tr.Commit()
	require.NoError(t, err)

	v, err := NewView(s, root)
	require.NoError(t, err)

	require.Equal(t, 2, v.ThoughtCount())
	require.True(t, v.HasThought("t1"))
	require.True(t, v.HasThought("t2"))

	got, err := v.GetThought("t1")
	require.NoError(t, err)
	require.Equal(t, "First thought", got.Content)
}

func TestGraphWithEdges(t *testing.T) {
	s := newMemStore()

	t1 := entity.NewThoughtWithID("t1", "Cat")
	t2 := entity.NewThoughtWithID("t2", "Animal")
	edge := entity.NewEdge("t1", "t2", entity.PartOf)

	h1 := s.putThought(t1)
	h2 := s.putThought(t2)
	eh := s.putEdge(edge)

	tr := buildTrie(t, s)
	require.NoError(t, tr.Insert([]byte("t:t1"), h1))
	require.NoError(t, tr.Insert([]byte("t:t2"), h2))
	require.NoError(t, tr.Insert([]byte("e:"+string(edge.CanonicalKey())), eh))
	root, err := tr.Commit()
	require.NoError(t, err)

	v, err := NewView(s, root)
	require.NoError(t, err)

	neighbors, err := v.Neighbors("t1", Outgoing, nil)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, entity.ThoughtID("t2"), neighbors[0].Thought.ID)
}

func TestNeighborsFilterByEdgeType(t *testing.T) {
	s := newMemStore()

	t1 := entity.NewThoughtWithID("t1", "A")
	t2 := entity.NewThoughtWithID("t2", "B")
	t3 := entity.NewThoughtWithID("t3", "C")
	e1 := entity.NewEdge("t1", "t2", entity.PartOf)
	e2 := entity.NewEdge("t1", "t3", entity.Causes)

	h1 := s.putThought(t1)
	h2 := s.putThought(t2)
	h3 := s.putThought(t3)
	eh1 := s.putEdge(e1)
	eh2 := s.putEdge(e2)

	tr := buildTrie(t, s)
	require.NoError(t, tr.Insert([]byte("t:t1"), h1))
	require.NoError(t, tr.Insert([]byte("t:t2"), h2))
	require.NoError(t, tr.Insert([]byte("t:t3"), h3))
	require.NoError(t, tr.Insert([]byte("e:"+string(e1.CanonicalKey())), eh1))
	require.NoError(t, tr.Insert([]byte("e:"+string(e2.CanonicalKey())), eh2))
	root, err := tr.Commit()
	require.NoError(t, err)

	v, err := NewView(s, root)
	require.NoError(t, err)

	partOf := entity.PartOf
	neighbors, err := v.Neighbors("t1", Outgoing, &partOf)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, entity.ThoughtID("t2"), neighbors[0].Thought.ID)
}

func TestBFSAndShortestPath(t *testing.T) {
	s := newMemStore()

	ids := []entity.ThoughtID{"a", "b", "c", "d"}
	hashes := make(map[entity.ThoughtID]hash.Hash)
	for _, id := range ids {
		th := entity.NewThoughtWithID(id, string(id))
		hashes[id] = s.putThought(th)
	}

	edges := []*entity.Edge{
		entity.NewEdge("a", "b", entity.RelatesTo),
		entity.NewEdge("b", "c", entity.RelatesTo),
		entity.NewEdge("c", "d", entity.RelatesTo),
	}

	tr := buildTrie(t, s)
	for _, id := range ids {
		require.NoError(t, tr.Insert([]byte("t:"+string(id)), hashes[id]))
	}
	for _, e := range edges {
		eh := s.putEdge(e)
		require.NoError(t, tr.Insert([]byte("e:"+string(e.CanonicalKey())), eh))
	}
	root, err := tr.Commit()
	require.NoError(t, err)

	v, err := NewView(s, root)
	require.NoError(t, err)

	visited, err := v.BFS("a", Outgoing, nil)
	require.NoError(t, err)
	require.Len(t, visited, 4)
	require.Equal(t, entity.ThoughtID("a"), visited[0].Thought.ID)
	require.Equal(t, 0, visited[0].Depth)

	path, err := v.ShortestPath("a", "d")
	require.NoError(t, err)
	require.Equal(t, []entity.ThoughtID{"a", "b", "c", "d"}, path)

	noPath, err := v.ShortestPath("a", "nonexistent")
	require.NoError(t, err)
	require.Nil(t, noPath)
}
