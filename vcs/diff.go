package vcs

import (
	"bytes"
	"sort"
	"strings"

	"github.com/moonstripe/indra-go/blob"
	"github.com/moonstripe/indra-go/hash"
	"github.com/moonstripe/indra-go/trie"
)

const (
	thoughtPrefix = "t:"
	edgePrefix    = "e:"
)

// DiffKind discriminates the three shapes a key's change can take.
type DiffKind int

const (
	Added DiffKind = iota
	Removed
	Modified
)

func (k DiffKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// DiffEntry describes one key-level change between two tree states.
type DiffEntry struct {
	Kind    DiffKind
	Key     []byte
	OldHash hash.Hash
	NewHash hash.Hash
}

// IsThought reports whether the entry's key belongs to the thought namespace.
func (e DiffEntry) IsThought() bool { return strings.HasPrefix(string(e.Key), thoughtPrefix) }

// IsEdge reports whether the entry's key belongs to the edge namespace.
func (e DiffEntry) IsEdge() bool { return strings.HasPrefix(string(e.Key), edgePrefix) }

// Diff is a sorted collection of key-level changes between two tree roots.
type Diff struct {
	Entries []DiffEntry
}

// IsEmpty reports whether the diff contains no changes.
func (d Diff) IsEmpty() bool { return len(d.Entries) == 0 }

// AddedCount, RemovedCount, and ModifiedCount tally entries by kind.
func (d Diff) AddedCount() int    { return d.countKind(Added) }
func (d Diff) RemovedCount() int  { return d.countKind(Removed) }
func (d Diff) ModifiedCount() int { return d.countKind(Modified) }

func (d Diff) countKind(k DiffKind) int {
	n := 0
	for _, e := range d.Entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// ThoughtChanges returns the subset of entries in the thought namespace.
func (d Diff) ThoughtChanges() []DiffEntry {
	return d.filter(DiffEntry.IsThought)
}

// EdgeChanges returns the subset of entries in the edge namespace.
func (d Diff) EdgeChanges() []DiffEntry {
	return d.filter(DiffEntry.IsEdge)
}

func (d Diff) filter(pred func(DiffEntry) bool) []DiffEntry {
	var out []DiffEntry
	for _, e := range d.Entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// diffObjectStore is the subset of store.ObjectStore DiffTrees depends on.
type diffObjectStore interface {
	Put(b blob.Blob) (hash.Hash, error)
	Get(h hash.Hash) (blob.Blob, error)
}

// DiffTrees computes the key-level diff between two trie roots. Either
// root may be the zero hash to mean "empty tree".
func DiffTrees(store diffObjectStore, oldRoot, newRoot hash.Hash) (Diff, error) {
	if oldRoot == newRoot {
		return Diff{}, nil
	}

	oldEntries, err := collectAllEntries(store, oldRoot)
	if err != nil {
		return Diff{}, err
	}
	newEntries, err := collectAllEntries(store, newRoot)
	if err != nil {
		return Diff{}, err
	}

	var entries []DiffEntry
	seen := make(map[string]bool)

	for key, oldHash := range oldEntries {
		seen[key] = true
		newHash, stillPresent := newEntries[key]
		switch {
		case !stillPresent:
			entries = append(entries, DiffEntry{Kind: Removed, Key: []byte(key), OldHash: oldHash})
		case newHash != oldHash:
			entries = append(entries, DiffEntry{Kind: Modified, Key: []byte(key), OldHash: oldHash, NewHash: newHash})
		}
	}
	for key, newHash := range newEntries {
		if seen[key] {
			continue
		}
		entries = append(entries, DiffEntry{Kind: Added, Key: []byte(key), NewHash: newHash})
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})

	return Diff{Entries: entries}, nil
}

func collectAllEntries(store diffObjectStore, root hash.Hash) (map[string]hash.Hash, error) {
	out := make(map[string]hash.Hash)
	if root.IsZero() {
		return out, nil
	}

	tr, err := trie.FromRoot(store, root)
	if err != nil {
		return nil, err
	}

	thoughts, err := tr.ListPrefix([]byte(thoughtPrefix))
	if err != nil {
		return nil, err
	}
	for _, e := range thoughts {
		out[string(e.Key)] = e.Value
	}

	edges, err := tr.ListPrefix([]byte(edgePrefix))
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		out[string(e.Key)] = e.Value
	}

	return out, nil
}
