package indra

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonstripe/indra-go/embed"
	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/errs"
	"github.com/moonstripe/indra-go/graph"
)

func tempDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.indra")
}

// S1 — Thought round-trip.
func TestThoughtRoundTrip(t *testing.T) {
	path := tempDBPath(t)

	db, err := Create(path)
	require.NoError(t, err)

	id, err := db.CreateThought("Hello, world!")
	require.NoError(t, err)

	th, err := db.GetThought(id)
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", th.Content)
	require.Nil(t, th.Embedding)

	_, err = db.CommitWithAuthor("init", "test")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetThought(id)
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", got.Content)
}

// S2 — Relate and traverse.
func TestRelateAndTraverse(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateThoughtWithID("cat", "Cat")
	require.NoError(t, err)
	_, err = db.CreateThoughtWithID("animal", "Animal")
	require.NoError(t, err)

	require.NoError(t, db.Relate("cat", "animal", entity.PartOf))
	_, err = db.CommitWithAuthor("relate", "test")
	require.NoError(t, err)

	out, err := db.Neighbors("cat", graph.Outgoing)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, entity.ThoughtID("animal"), out[0].Thought.ID)

	in, err := db.Neighbors("animal", graph.Incoming)
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.Equal(t, entity.ThoughtID("cat"), in[0].Thought.ID)
}

// S3 — Branching.
func TestBranching(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateThoughtWithID("seed", "seed thought")
	require.NoError(t, err)
	_, err = db.CommitWithAuthor("initial", "test")
	require.NoError(t, err)

	require.NoError(t, db.CreateBranch("feature"))
	require.NoError(t, db.Checkout("feature"))

	_, err = db.CreateThoughtWithID("x", "feature-only thought")
	require.NoError(t, err)
	_, err = db.CommitWithAuthor("add x", "test")
	require.NoError(t, err)

	require.NoError(t, db.Checkout("main"))
	absent, err := db.GetThought("x")
	require.NoError(t, err)
	require.Nil(t, absent)

	require.NoError(t, db.Checkout("feature"))
	present, err := db.GetThought("x")
	require.NoError(t, err)
	require.NotNil(t, present)
}

// S4 — Search ordering.
func TestSearchOrdering(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	db.SetEmbedder(embed.NewDefaultMockEmbedder())

	_, err = db.CreateThought("the cat sat on the mat")
	require.NoError(t, err)
	_, err = db.CreateThought("a dog ran in the park")
	require.NoError(t, err)
	_, err = db.CreateThought("the cat played with yarn")
	require.NoError(t, err)

	_, err = db.CommitWithAuthor("seed thoughts", "test")
	require.NoError(t, err)

	results, err := db.Search("cat sitting", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

// S5 — Diff classification.
func TestDiffClassification(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateThoughtWithID("a", "original a")
	require.NoError(t, err)
	_, err = db.CreateThoughtWithID("c", "to be removed")
	require.NoError(t, err)
	commit1, err := db.CommitWithAuthor("s1", "test")
	require.NoError(t, err)

	require.NoError(t, db.UpdateThought("a", "modified a"))
	_, err = db.CreateThoughtWithID("b", "new thought")
	require.NoError(t, err)
	require.NoError(t, db.DeleteThought("c"))
	commit2, err := db.CommitWithAuthor("s2", "test")
	require.NoError(t, err)

	d, err := db.Diff(commit1, commit2)
	require.NoError(t, err)
	require.Equal(t, 1, d.ModifiedCount())
	require.Equal(t, 1, d.AddedCount())
	require.Equal(t, 1, d.RemovedCount())
}

// S6 — Deduplication.
func TestDeduplicationAcrossCommits(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	before := db.store.ObjectCount()

	_, err = db.CreateThoughtWithID("dup", "same content")
	require.NoError(t, err)
	_, err = db.CommitWithAuthor("first", "test")
	require.NoError(t, err)
	afterFirst := db.store.ObjectCount()
	require.Greater(t, afterFirst, before)

	th, err := db.GetThought("dup")
	require.NoError(t, err)
	require.NotNil(t, th)

	db.tree.thoughts["dup"] = th
	db.tree.dirty = true
	_, err = db.CommitWithAuthor("second", "test")
	require.NoError(t, err)
	afterSecond := db.store.ObjectCount()

	// The identical thought blob and tree node are deduplicated; the only
	// new object is the second commit record itself.
	require.Equal(t, afterFirst+1, afterSecond)
}

func TestCommitWithNoChangesFails(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CommitWithAuthor("empty", "test")
	require.Error(t, err)
}

func TestCheckoutRejectsDirtyWorkingTree(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateBranch("feature"))
	_, err = db.CreateThought("uncommitted")
	require.NoError(t, err)

	err = db.Checkout("feature")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrDirtyWorkingTree))
	require.False(t, errors.Is(err, errs.ErrBranchNotFound))
}

func TestIsDirtyNeverRecomputedFromNetEffect(t *testing.T) {
	db, err := Create(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	require.False(t, db.IsDirty())

	id, err := db.CreateThought("ephemeral")
	require.NoError(t, err)
	require.True(t, db.IsDirty())

	require.NoError(t, db.DeleteThought(id))
	require.True(t, db.IsDirty())
}
