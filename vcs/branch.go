// Package vcs implements the git-like version-control layer: branches,
// refs, commits, checkout, and tree diffing on top of the object store.
package vcs

import (
	"fmt"

	"github.com/moonstripe/indra-go/entity"
	"github.com/moonstripe/indra-go/errs"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/store"
)

// HeadDetached is the reserved ref name used to hold a detached HEAD's
// commit when checking out a raw commit hash instead of a branch.
const HeadDetached = "HEAD_DETACHED"

// refStore is the subset of store.ObjectStore the VCS layer depends on.
type refStore interface {
	Head() string
	SetHead(name string) error
	GetRef(name string) (hash.Hash, bool)
	SetRef(name string, commit hash.Hash)
	HeadCommit() (hash.Hash, bool)
	ListRefs() []RefEntry
	CreateBranch(name string, commit hash.Hash) error
	DeleteBranch(name string) error
	Contains(h hash.Hash) bool
	PutCommit(c *entity.Commit) (hash.Hash, error)
	GetCommit(h hash.Hash) (*entity.Commit, error)
}

// RefEntry names a ref and the commit it points at; it is store.RefEntry,
// re-exported so callers need not import store directly.
type RefEntry = store.RefEntry

// Branches manages branch refs, commits, and history for a single store.
type Branches struct {
	store refStore
}

// NewBranches wraps store with branch/commit operations.
func NewBranches(store refStore) *Branches {
	return &Branches{store: store}
}

// CurrentBranch returns the name of the ref HEAD currently points at (which
// may be HeadDetached).
func (b *Branches) CurrentBranch() string {
	return b.store.Head()
}

// ListBranches returns every ref, sorted by name.
func (b *Branches) ListBranches() []RefEntry {
	return b.store.ListRefs()
}

// CreateBranch creates name at the current HEAD commit (or the zero hash
// if there is no commit yet).
func (b *Branches) CreateBranch(name string) error {
	headCommit, ok := b.store.HeadCommit()
	if !ok {
		headCommit = hash.Zero
	}
	return b.store.CreateBranch(name, headCommit)
}

// CreateBranchAt creates name pointed at an explicit commit.
func (b *Branches) CreateBranchAt(name string, commit hash.Hash) error {
	return b.store.CreateBranch(name, commit)
}

// DeleteBranch removes a branch ref.
func (b *Branches) DeleteBranch(name string) error {
	return b.store.DeleteBranch(name)
}

// SwitchBranch moves HEAD to an existing branch.
func (b *Branches) SwitchBranch(name string) error {
	return b.store.SetHead(name)
}

// BranchCommit returns the commit a named ref points at, if it exists.
func (b *Branches) BranchCommit(name string) (hash.Hash, bool) {
	return b.store.GetRef(name)
}

// HeadTree returns the tree hash of HEAD's commit, or the zero hash if
// there is no commit yet.
func (b *Branches) HeadTree() (hash.Hash, error) {
	commitHash, ok := b.store.HeadCommit()
	if !ok {
		return hash.Zero, nil
	}
	commit, err := b.store.GetCommit(commitHash)
	if err != nil {
		return hash.Zero, err
	}
	return commit.Tree, nil
}

// Commit records a new commit at treeHash, parented on the current HEAD
// commit (or no parent if this is the first commit), and advances the
// current branch ref to it.
func (b *Branches) Commit(treeHash hash.Hash, message, author string) (hash.Hash, error) {
	parent, hasParent := b.store.HeadCommit()

	var commit *entity.Commit
	if hasParent {
		commit = entity.ChildCommit(treeHash, parent, message, author)
	} else {
		commit = entity.InitialCommit(treeHash, message, author)
	}

	commitHash, err := b.store.PutCommit(commit)
	if err != nil {
		return hash.Zero, err
	}

	b.store.SetRef(b.CurrentBranch(), commitHash)
	return commitHash, nil
}

// LogEntry pairs a commit hash with its decoded commit.
type LogEntry struct {
	Hash   hash.Hash
	Commit *entity.Commit
}

// Log walks the first-parent history from HEAD, most recent first. A nil
// limit returns the full history.
func (b *Branches) Log(limit *int) ([]LogEntry, error) {
	var result []LogEntry
	current, ok := b.store.HeadCommit()

	max := -1
	if limit != nil {
		max = *limit
	}

	for ok {
		if max >= 0 && len(result) >= max {
			break
		}
		commit, err := b.store.GetCommit(current)
		if err != nil {
			return nil, err
		}
		result = append(result, LogEntry{Hash: current, Commit: commit})

		if len(commit.Parents) == 0 {
			break
		}
		current = commit.Parents[0]
	}
	return result, nil
}

// Checkout switches to target, which may name an existing branch or a raw
// commit hash. Checking out a commit hash creates (or advances) the
// HeadDetached pseudo-ref and moves HEAD to it, per spec; checking out a
// branch moves HEAD to that branch directly. Returns the resulting tree
// hash.
func Checkout(store refStore, target string) (hash.Hash, error) {
	if commitHash, ok := store.GetRef(target); ok {
		if err := store.SetHead(target); err != nil {
			return hash.Zero, err
		}
		if commitHash.IsZero() {
			return hash.Zero, nil
		}
		commit, err := store.GetCommit(commitHash)
		if err != nil {
			return hash.Zero, err
		}
		return commit.Tree, nil
	}

	if h, err := hash.FromHex(target); err == nil && store.Contains(h) {
		commit, err := store.GetCommit(h)
		if err != nil {
			return hash.Zero, err
		}
		store.SetRef(HeadDetached, h)
		if err := store.SetHead(HeadDetached); err != nil {
			return hash.Zero, err
		}
		return commit.Tree, nil
	}

	return hash.Zero, fmt.Errorf("%w: %q", errs.ErrRefNotFound, target)
}
