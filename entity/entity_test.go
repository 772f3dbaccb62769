package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonstripe/indra-go/hash"
)

func TestThoughtContentHashDeterministic(t *testing.T) {
	th := NewThoughtWithID("t1", "hello")
	th.CreatedAt = 1000
	th.ModifiedAt = 1000

	h1, err := th.ContentHash()
	require.NoError(t, err)
	h2, err := th.ContentHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestThoughtContentHashChangesWithContent(t *testing.T) {
	a := NewThoughtWithID("t1", "hello")
	a.CreatedAt, a.ModifiedAt = 1, 1
	b := NewThoughtWithID("t1", "hello, world")
	b.CreatedAt, b.ModifiedAt = 1, 1

	ha, err := a.ContentHash()
	require.NoError(t, err)
	hb, err := b.ContentHash()
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)
}

func TestThoughtAttrRoundTrip(t *testing.T) {
	th := NewThoughtWithID("t1", "hello")
	require.NoError(t, th.SetAttr("embedder_model", "mock-embedder"))

	var model string
	ok, err := th.Attr("embedder_model", &model)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "mock-embedder", model)
}

func TestUpdateContentClearsEmbeddingAndBumpsTimestamp(t *testing.T) {
	th := NewThoughtWithID("t1", "hello")
	th.Embedding = []float32{1, 2, 3}
	th.ModifiedAt = 0

	th.UpdateContent("updated")

	require.Equal(t, "updated", th.Content)
	require.Nil(t, th.Embedding)
	require.NotZero(t, th.ModifiedAt)
}

func TestEdgeCanonicalKeyDirected(t *testing.T) {
	e := NewEdge("cat", "animal", PartOf)
	require.Equal(t, "cat:animal:part_of", e.CanonicalKey())
}

func TestEdgeCanonicalKeyUndirectedIsOrderIndependent(t *testing.T) {
	forward := NewUndirectedEdge("a", "b", RelatesTo)
	backward := NewUndirectedEdge("b", "a", RelatesTo)

	require.Equal(t, forward.CanonicalKey(), backward.CanonicalKey())
}

func TestEdgeWeightClamped(t *testing.T) {
	e := NewEdge("a", "b", RelatesTo).WithWeight(5)
	require.Equal(t, float32(1), e.Weight)

	e2 := NewEdge("a", "b", RelatesTo).WithWeight(-5)
	require.Equal(t, float32(0), e2.Weight)
}

func TestCommitInitialAndChild(t *testing.T) {
	tree := hash.Digest([]byte("tree"))
	initial := InitialCommit(tree, "init", "tester")
	require.True(t, initial.IsInitial())
	require.False(t, initial.IsMerge())

	parent := hash.Digest([]byte("parent"))
	child := ChildCommit(tree, parent, "child", "tester")
	require.False(t, child.IsInitial())
	require.Len(t, child.Parents, 1)
}

func TestMergeCommitRequiresTwoParents(t *testing.T) {
	tree := hash.Digest([]byte("tree"))
	require.Panics(t, func() {
		MergeCommit(tree, []hash.Hash{hash.Digest([]byte("p1"))}, "merge", "tester")
	})
}

func TestCommitHashDeterministic(t *testing.T) {
	tree := hash.Digest([]byte("tree"))
	c := InitialCommit(tree, "msg", "author")
	c.Timestamp = 42

	h1, err := c.Hash()
	require.NoError(t, err)
	h2, err := c.Hash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestGenerateThoughtIDIsUnique(t *testing.T) {
	a := GenerateThoughtID()
	b := GenerateThoughtID()
	require.NotEqual(t, a, b)
}
