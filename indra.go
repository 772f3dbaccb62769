// Package indra is the root façade of the embedded graph database: it ties
// the object store, merkle trie, version-control layer, and optional
// embedder together behind a single Database type with an in-memory
// working tree of uncommitted changes.
package indra

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/moonstripe/indra-go/embed"
	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/errs"
	"github.com/moonstripe/indra-go/graph"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/search"
	"github.com/moonstripe/indra-go/store"
	"github.com/moonstripe/indra-go/trie"
	"github.com/moonstripe/indra-go/vcs"
)

const embedderModelAttr = "embedder_model"

// workingTree tracks uncommitted changes layered on top of the last
// committed tree. Per the documented quirk, dirty is set whenever a
// mutating operation runs and is only cleared by commit or a fresh
// working tree — it is never recomputed from the net effect of the
// pending changes.
type workingTree struct {
	thoughts        map[entity.ThoughtID]*entity.Thought
	edges           map[string]*entity.Edge
	removedThoughts map[entity.ThoughtID]bool
	removedEdges    map[string]bool
	dirty           bool
}

func newWorkingTree() *workingTree {
	return &workingTree{
		thoughts:        make(map[entity.ThoughtID]*entity.Thought),
		edges:           make(map[string]*entity.Edge),
		removedThoughts: make(map[entity.ThoughtID]bool),
		removedEdges:    make(map[string]bool),
	}
}

func (w *workingTree) clear() {
	w.thoughts = make(map[entity.ThoughtID]*entity.Thought)
	w.edges = make(map[string]*entity.Edge)
	w.removedThoughts = make(map[entity.ThoughtID]bool)
	w.removedEdges = make(map[string]bool)
	w.dirty = false
}

func (w *workingTree) hasChanges() bool {
	return len(w.thoughts) > 0 || len(w.edges) > 0 || len(w.removedThoughts) > 0 || len(w.removedEdges) > 0
}

// Database is the main entry point: thought/edge CRUD, semantic search,
// and git-like version control over a single-file object store.
type Database struct {
	store    *store.ObjectStore
	embedder embed.Embedder
	tree     *workingTree
	log      *zap.Logger
}

// Option configures a Database at construction time.
type Option func(*Database)

// WithEmbedder attaches an embedder used for search and automatic
// embedding of new/updated thought content.
func WithEmbedder(e embed.Embedder) Option {
	return func(d *Database) { d.embedder = e }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Database) { d.log = l }
}

func newDatabase(s *store.ObjectStore, opts ...Option) *Database {
	d := &Database{store: s, tree: newWorkingTree(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create creates a new database file at path.
func Create(path string, opts ...Option) (*Database, error) {
	s, err := store.Create(path)
	if err != nil {
		return nil, err
	}
	return newDatabase(s, opts...), nil
}

// Open opens an existing database file at path.
func Open(path string, opts ...Option) (*Database, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return newDatabase(s, opts...), nil
}

// OpenOrCreate opens path if it exists, or creates it otherwise.
func OpenOrCreate(path string, opts ...Option) (*Database, error) {
	s, err := store.OpenOrCreate(path)
	if err != nil {
		return nil, err
	}
	return newDatabase(s, opts...), nil
}

// SetEmbedder attaches or replaces the embedder used for search.
func (d *Database) SetEmbedder(e embed.Embedder) {
	d.embedder = e
}

// --- thought operations ------------------------------------------------

func (d *Database) embedThought(th *entity.Thought) error {
	if d.embedder == nil {
		return nil
	}
	vec, err := d.embedder.Embed(th.Content)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrEmbedding, err)
	}
	th.Embedding = vec
	if err := th.SetAttr(embedderModelAttr, d.embedder.ModelName()); err != nil {
		return err
	}
	return nil
}

// CreateThought creates a new thought with a generated ID.
func (d *Database) CreateThought(content string) (entity.ThoughtID, error) {
	th := entity.NewThought(content)
	if err := d.embedThought(th); err != nil {
		return "", err
	}

	d.tree.thoughts[th.ID] = th
	delete(d.tree.removedThoughts, th.ID)
	d.tree.dirty = true
	return th.ID, nil
}

// CreateThoughtWithID creates a new thought with a caller-supplied ID.
func (d *Database) CreateThoughtWithID(id entity.ThoughtID, content string) (entity.ThoughtID, error) {
	th := entity.NewThoughtWithID(id, content)
	if err := d.embedThought(th); err != nil {
		return "", err
	}

	d.tree.thoughts[id] = th
	delete(d.tree.removedThoughts, id)
	d.tree.dirty = true
	return id, nil
}

// GetThought returns a thought by ID, checking the working tree before
// falling back to committed state. Returns (nil, nil) if not found.
func (d *Database) GetThought(id entity.ThoughtID) (*entity.Thought, error) {
	if d.tree.removedThoughts[id] {
		return nil, nil
	}
	if th, ok := d.tree.thoughts[id]; ok {
		return th, nil
	}

	treeHash, err := d.headTree()
	if err != nil {
		return nil, err
	}
	if treeHash.IsZero() {
		return nil, nil
	}

	view, err := graph.NewView(d.store, treeHash)
	if err != nil {
		return nil, err
	}
	return view.GetThought(id)
}

// UpdateThought replaces a thought's content, re-embedding if an embedder
// is configured.
func (d *Database) UpdateThought(id entity.ThoughtID, content string) error {
	th, err := d.GetThought(id)
	if err != nil {
		return err
	}
	if th == nil {
		return errs.NotFoundf("thought %q", id)
	}

	th.UpdateContent(content)
	if err := d.embedThought(th); err != nil {
		return err
	}

	d.tree.thoughts[id] = th
	d.tree.dirty = true
	return nil
}

// DeleteThought marks a thought as removed in the working tree.
func (d *Database) DeleteThought(id entity.ThoughtID) error {
	delete(d.tree.thoughts, id)
	d.tree.removedThoughts[id] = true
	d.tree.dirty = true
	return nil
}

// ListThoughts returns every thought visible at HEAD with working-tree
// changes applied on top.
func (d *Database) ListThoughts() ([]*entity.Thought, error) {
	combined := make(map[entity.ThoughtID]*entity.Thought)

	treeHash, err := d.headTree()
	if err != nil {
		return nil, err
	}
	if !treeHash.IsZero() {
		view, err := graph.NewView(d.store, treeHash)
		if err != nil {
			return nil, err
		}
		committed, err := view.AllThoughts()
		if err != nil {
			return nil, err
		}
		for _, th := range committed {
			combined[th.ID] = th
		}
	}

	for id, th := range d.tree.thoughts {
		combined[id] = th
	}
	for id := range d.tree.removedThoughts {
		delete(combined, id)
	}

	out := make([]*entity.Thought, 0, len(combined))
	for _, th := range combined {
		out = append(out, th)
	}
	return out, nil
}

// --- edge operations -----------------------------------------------------

// Relate creates a directed edge of edgeType from source to target.
func (d *Database) Relate(source, target entity.ThoughtID, edgeType entity.EdgeType) error {
	edge := entity.NewEdge(source, target, edgeType)
	key := edge.CanonicalKey()

	d.tree.edges[key] = edge
	delete(d.tree.removedEdges, key)
	d.tree.dirty = true
	return nil
}

// RelateWeighted creates a directed, weighted edge between two thoughts.
func (d *Database) RelateWeighted(source, target entity.ThoughtID, edgeType entity.EdgeType, weight float32) error {
	edge := entity.NewEdge(source, target, edgeType).WithWeight(weight)
	key := edge.CanonicalKey()

	d.tree.edges[key] = edge
	delete(d.tree.removedEdges, key)
	d.tree.dirty = true
	return nil
}

// Unrelate removes the edge of edgeType from source to target, if present.
func (d *Database) Unrelate(source, target entity.ThoughtID, edgeType entity.EdgeType) error {
	key := entity.NewEdge(source, target, edgeType).CanonicalKey()
	delete(d.tree.edges, key)
	d.tree.removedEdges[key] = true
	d.tree.dirty = true
	return nil
}

// Neighbors returns the thoughts connected to id at HEAD, following direction.
func (d *Database) Neighbors(id entity.ThoughtID, direction graph.Direction) ([]graph.Neighbor, error) {
	treeHash, err := d.headTree()
	if err != nil {
		return nil, err
	}
	if treeHash.IsZero() {
		return nil, nil
	}

	view, err := graph.NewView(d.store, treeHash)
	if err != nil {
		return nil, err
	}
	return view.Neighbors(id, direction, nil)
}

// --- search operations ---------------------------------------------------

// Search performs embedder-backed semantic search for query, returning up
// to limit results sorted by similarity.
func (d *Database) Search(query string, limit int) ([]search.Result, error) {
	return d.searchInternal(query, limit, nil)
}

// SearchWithThreshold is Search with a minimum similarity score.
func (d *Database) SearchWithThreshold(query string, threshold float32, limit int) ([]search.Result, error) {
	return d.searchInternal(query, limit, &threshold)
}

func (d *Database) searchInternal(query string, limit int, threshold *float32) ([]search.Result, error) {
	if d.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", errs.ErrEmbedding)
	}
	queryVector, err := d.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEmbedding, err)
	}

	treeHash, err := d.headTree()
	if err != nil {
		return nil, err
	}
	if treeHash.IsZero() {
		return nil, nil
	}

	view, err := graph.NewView(d.store, treeHash)
	if err != nil {
		return nil, err
	}
	vs := search.NewVectorSearch(view)
	return vs.SearchWithThreshold(queryVector, limit, threshold)
}

// --- version control operations -------------------------------------------

// Commit records the working tree's changes under the "indra" author.
func (d *Database) Commit(message string) (hash.Hash, error) {
	return d.CommitWithAuthor(message, "indra")
}

// CommitWithAuthor records the working tree's changes as a new commit
// authored by author, failing with NotFound if there is nothing to commit.
func (d *Database) CommitWithAuthor(message, author string) (hash.Hash, error) {
	baseTree, err := d.headTree()
	if err != nil {
		return hash.Zero, err
	}

	if !d.tree.hasChanges() {
		return hash.Zero, errs.NotFoundf("nothing to commit")
	}

	tr, err := trie.FromRoot(d.store, baseTree)
	if err != nil {
		return hash.Zero, err
	}

	for id, th := range d.tree.thoughts {
		h, err := d.store.PutThought(th)
		if err != nil {
			return hash.Zero, err
		}
		if err := tr.Insert([]byte("t:"+string(id)), h); err != nil {
			return hash.Zero, err
		}
	}
	for id := range d.tree.removedThoughts {
		if _, _, err := tr.Remove([]byte("t:" + string(id))); err != nil {
			return hash.Zero, err
		}
	}

	for key, edge := range d.tree.edges {
		h, err := d.store.PutEdge(edge)
		if err != nil {
			return hash.Zero, err
		}
		if err := tr.Insert([]byte("e:"+key), h); err != nil {
			return hash.Zero, err
		}
	}
	for key := range d.tree.removedEdges {
		if _, _, err := tr.Remove([]byte("e:" + key)); err != nil {
			return hash.Zero, err
		}
	}

	treeHash, err := tr.Commit()
	if err != nil {
		return hash.Zero, err
	}

	branches := vcs.NewBranches(d.store)
	commitHash, err := branches.Commit(treeHash, message, author)
	if err != nil {
		return hash.Zero, err
	}

	d.tree.clear()
	d.log.Debug("commit recorded", zap.String("message", message), zap.String("author", author))
	return commitHash, nil
}

// IsDirty reports whether the working tree has uncommitted changes. This
// flag is set by every mutating call and cleared only by Commit or a fresh
// database; it is never recomputed from the net effect of pending changes,
// so e.g. creating then deleting the same thought still leaves it set.
func (d *Database) IsDirty() bool {
	return d.tree.dirty
}

// CurrentBranch returns the name of the ref HEAD points at.
func (d *Database) CurrentBranch() string {
	return d.store.Head()
}

// CreateBranch creates a branch at the current HEAD commit.
func (d *Database) CreateBranch(name string) error {
	return vcs.NewBranches(d.store).CreateBranch(name)
}

// Checkout switches to a branch, refusing to do so while the working tree
// has uncommitted changes.
func (d *Database) Checkout(branch string) error {
	if d.tree.dirty {
		return fmt.Errorf("%w: commit or discard pending changes first", errs.ErrDirtyWorkingTree)
	}
	_, err := vcs.Checkout(d.store, branch)
	return err
}

// ListBranches returns every ref, sorted by name.
func (d *Database) ListBranches() []vcs.RefEntry {
	return vcs.NewBranches(d.store).ListBranches()
}

// Log returns commit history from HEAD, most recent first. A nil limit
// returns the full history.
func (d *Database) Log(limit *int) ([]vcs.LogEntry, error) {
	return vcs.NewBranches(d.store).Log(limit)
}

// Diff computes the key-level diff between two commits, either of which
// may be the zero hash to mean "before any commits".
func (d *Database) Diff(from, to hash.Hash) (vcs.Diff, error) {
	fromTree := hash.Zero
	if !from.IsZero() {
		commit, err := d.store.GetCommit(from)
		if err != nil {
			return vcs.Diff{}, err
		}
		fromTree = commit.Tree
	}

	toTree := hash.Zero
	if !to.IsZero() {
		commit, err := d.store.GetCommit(to)
		if err != nil {
			return vcs.Diff{}, err
		}
		toTree = commit.Tree
	}

	return vcs.DiffTrees(d.store, fromTree, toTree)
}

func (d *Database) headTree() (hash.Hash, error) {
	commitHash, ok := d.store.HeadCommit()
	if !ok {
		return hash.Zero, nil
	}
	commit, err := d.store.GetCommit(commitHash)
	if err != nil {
		return hash.Zero, err
	}
	return commit.Tree, nil
}

// Sync flushes the object store to durable storage.
func (d *Database) Sync() error {
	return d.store.Sync()
}

// Close flushes and closes the underlying object store.
func (d *Database) Close() error {
	return d.store.Close()
}
