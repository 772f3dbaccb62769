package vcs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonstripe/indra-go/blob"
	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/trie"
)

// memStore is a minimal in-memory store satisfying both refStore and
// diffObjectStore for vcs tests.
type memStore struct {
	objects  map[hash.Hash]blob.Blob
	commits  map[hash.Hash]*entity.Commit
	refs     map[string]hash.Hash
	head     string
}

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[hash.Hash]blob.Blob),
		commits: make(map[hash.Hash]*entity.Commit),
		refs:    map[string]hash.Hash{"main": hash.Zero},
		head:    "main",
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

func (m *memStore) Contains(h hash.Hash) bool {
	_, ok := m.objects[h]
	if ok {
		return true
	}
	_, ok = m.commits[h]
	return ok
}

func (m *memStore) PutCommit(c *entity.Commit) (hash.Hash, error) {
	h, err := c.Hash()
	if err != nil {
		return hash.Zero, err
	}
	m.commits[h] = c
	return h, nil
}

func (m *memStore) GetCommit(h hash.Hash) (*entity.Commit, error) {
	c, ok := m.commits[h]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (m *memStore) Head() string { return m.head }

func (m *memStore) SetHead(name string) error {
	if _, ok := m.refs[name]; !ok {
		return errNotFound
	}
	m.head = name
	return nil
}

func (m *memStore) GetRef(name string) (hash.Hash, bool) {
	h, ok := m.refs[name]
	return h, ok
}

func (m *memStore) SetRef(name string, commit hash.Hash) {
	m.refs[name] = commit
}

func (m *memStore) HeadCommit() (hash.Hash, bool) {
	h, ok := m.refs[m.head]
	if !ok || h.IsZero() {
		return hash.Zero, false
	}
	return h, true
}

func (m *memStore) ListRefs() []RefEntry {
	out := make([]RefEntry, 0, len(m.refs))
	for name, h := range m.refs {
		out = append(out, RefEntry{Name: name, Commit: h})
	}
	return out
}

func (m *memStore) CreateBranch(name string, commit hash.Hash) error {
	if _, exists := m.refs[name]; exists {
		return errNotFound
	}
	m.refs[name] = commit
	return nil
}

func (m *memStore) DeleteBranch(name string) error {
	if m.head == name {
		return errNotFound
	}
	delete(m.refs, name)
	return nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

func TestBranchOperations(t *testing.T) {
	s := newMemStore()
	b := NewBranches(s)

	require.Equal(t, "main", b.CurrentBranch())

	require.NoError(t, b.CreateBranch("feature"))
	require.NoError(t, b.SwitchBranch("feature"))
	require.Equal(t, "feature", b.CurrentBranch())

	branches := b.ListBranches()
	require.Len(t, branches, 2)
}

func TestCommitAndLog(t *testing.T) {
	s := newMemStore()
	b := NewBranches(s)

	tree1 := hash.Digest([]byte("tree1"))
	c1, err := b.Commit(tree1, "First commit", "test")
	require.NoError(t, err)

	tree2 := hash.Digest([]byte("tree2"))
	c2, err := b.Commit(tree2, "Second commit", "test")
	require.NoError(t, err)

	log, err := b.Log(nil)
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Equal(t, c2, log[0].Hash)
	require.Equal(t, c1, log[1].Hash)
}

func TestCheckoutBranch(t *testing.T) {
	s := newMemStore()
	b := NewBranches(s)

	tree := hash.Digest([]byte("tree1"))
	_, err := b.Commit(tree, "msg", "test")
	require.NoError(t, err)

	require.NoError(t, b.CreateBranch("feature"))

	gotTree, err := Checkout(s, "feature")
	require.NoError(t, err)
	require.Equal(t, tree, gotTree)
	require.Equal(t, "feature", s.Head())
}

func TestCheckoutDetachedCommit(t *testing.T) {
	s := newMemStore()
	b := NewBranches(s)

	tree := hash.Digest([]byte("tree1"))
	c1, err := b.Commit(tree, "msg", "test")
	require.NoError(t, err)

	gotTree, err := Checkout(s, c1.String())
	require.NoError(t, err)
	require.Equal(t, tree, gotTree)
	require.Equal(t, HeadDetached, s.Head())
}

func TestCheckoutUnknownTargetFails(t *testing.T) {
	s := newMemStore()
	_, err := Checkout(s, "does-not-exist")
	require.Error(t, err)
}

func buildTrieRoot(t *testing.T, s *memStore, entries map[string]hash.Hash) hash.Hash {
	t.Helper()
	tr := trie.New(s)
	for k, v := range entries {
		require.NoError(t, tr.Insert([]byte(k), v))
	}
	root, err := tr.Commit()
	require.NoError(t, err)
	return root
}

func TestDiffEmptyToNonEmpty(t *testing.T) {
	s := newMemStore()
	h := hash.Digest([]byte("t1"))
	root := buildTrieRoot(t, s, map[string]hash.Hash{"t:t1": h})

	d, err := DiffTrees(s, hash.Zero, root)
	require.NoError(t, err)
	require.Equal(t, 1, d.AddedCount())
	require.Equal(t, 0, d.RemovedCount())
	require.Equal(t, 0, d.ModifiedCount())
}

func TestDiffModification(t *testing.T) {
	s := newMemStore()
	h1 := hash.Digest([]byte("v1"))
	h2 := hash.Digest([]byte("v2"))
	root1 := buildTrieRoot(t, s, map[string]hash.Hash{"t:t1": h1})
	root2 := buildTrieRoot(t, s, map[string]hash.Hash{"t:t1": h2})

	d, err := DiffTrees(s, root1, root2)
	require.NoError(t, err)
	require.Equal(t, 0, d.AddedCount())
	require.Equal(t, 0, d.RemovedCount())
	require.Equal(t, 1, d.ModifiedCount())
}

func TestDiffSameTrees(t *testing.T) {
	s := newMemStore()
	h := hash.Digest([]byte("t1"))
	root := buildTrieRoot(t, s, map[string]hash.Hash{"t:t1": h})

	d, err := DiffTrees(s, root, root)
	require.NoError(t, err)
	require.True(t, d.IsEmpty())
}
