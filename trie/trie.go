package trie

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moonstripe/indra-go/blob"
	"github.com/moonstripe/indra-go/hash"
)

// nodeCacheSize bounds the in-memory cache of previously loaded nodes that
// spec.md §4.2 calls for.
const nodeCacheSize = 4096

// objectStore is the subset of store.ObjectStore the trie depends on; kept
// narrow so trie can be tested without a real on-disk file if needed.
type objectStore interface {
	Put(b blob.Blob) (hash.Hash, error)
	Get(h hash.Hash) (blob.Blob, error)
}

// Trie is a persistent, structurally-shared radix trie over byte keys.
type Trie struct {
	store objectStore
	root  Node
	cache *lru.Cache[hash.Hash, Node]
}

// Entry is one (key, value hash) pair returned by ListPrefix.
type Entry struct {
	Key   []byte
	Value hash.Hash
}

// New constructs an empty trie backed by store.
func New(s objectStore) *Trie {
	cache, _ := lru.New[hash.Hash, Node](nodeCacheSize)
	return &Trie{store: s, root: Empty(), cache: cache}
}

// FromRoot loads a trie rooted at rootHash. The zero hash constructs an
// empty trie without touching the store.
func FromRoot(s objectStore, rootHash hash.Hash) (*Trie, error) {
	t := New(s)
	if rootHash.IsZero() {
		return t, nil
	}
	root, err := t.loadNode(rootHash)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

// RootHash returns the current root's content hash, or the zero sentinel
// for an empty trie.
func (t *Trie) RootHash() hash.Hash {
	if t.root.IsEmpty() {
		return hash.Zero
	}
	return t.root.Hash()
}

func (t *Trie) loadNode(h hash.Hash) (Node, error) {
	if n, ok := t.cache.Get(h); ok {
		return n, nil
	}
	b, err := t.store.Get(h)
	if err != nil {
		return Node{}, err
	}
	n, err := decodeNode(b.Data)
	if err != nil {
		return Node{}, err
	}
	t.cache.Add(h, n)
	return n, nil
}

func (t *Trie) persist(n Node) (hash.Hash, error) {
	h := n.Hash()
	if _, err := t.store.Put(blob.New(blob.Tree, n.encode())); err != nil {
		return hash.Zero, err
	}
	t.cache.Add(h, n)
	return h, nil
}

// Get returns the value hash stored at key, if present.
func (t *Trie) Get(key []byte) (hash.Hash, bool, error) {
	return t.get(t.root, key)
}

func (t *Trie) get(n Node, key []byte) (hash.Hash, bool, error) {
	switch n.Kind {
	case KindEmpty:
		return hash.Zero, false, nil

	case KindLeaf:
		if bytesEqual(n.Prefix, key) {
			return n.Value, true, nil
		}
		return hash.Zero, false, nil

	case KindBranch:
		cpl := commonPrefixLen(n.Prefix, key)
		if cpl < len(n.Prefix) {
			return hash.Zero, false, nil
		}
		rest := key[cpl:]
		if len(rest) == 0 {
			if n.HasValue {
				return n.Value, true, nil
			}
			return hash.Zero, false, nil
		}
		childHash, ok := n.Children[rest[0]]
		if !ok {
			return hash.Zero, false, nil
		}
		child, err := t.loadNode(childHash)
		if err != nil {
			return hash.Zero, false, err
		}
		return t.get(child, rest[1:])

	default:
		return hash.Zero, false, nil
	}
}

// Insert maps key to value, rebuilding and eagerly persisting every node
// along the touched path so their hashes are immediately recorded in their
// parents (spec.md §4.2).
func (t *Trie) Insert(key []byte, value hash.Hash) error {
	newRoot, err := t.insert(t.root, key, value)
	if err != nil {
		return err
	}
	if !newRoot.IsEmpty() {
		if _, err := t.persist(newRoot); err != nil {
			return err
		}
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insert(n Node, key []byte, value hash.Hash) (Node, error) {
	switch n.Kind {
	case KindEmpty:
		return leaf(key, value), nil

	case KindLeaf:
		if bytesEqual(n.Prefix, key) {
			return leaf(key, value), nil
		}
		cpl := commonPrefixLen(n.Prefix, key)
		common := n.Prefix[:cpl]
		b := branch(common)

		oldRemainder := n.Prefix[cpl:]
		newRemainder := key[cpl:]

		if len(oldRemainder) == 0 {
			b.Value = n.Value
			b.HasValue = true
		} else {
			childHash, err := t.persist(leaf(oldRemainder[1:], n.Value))
			if err != nil {
				return Node{}, err
			}
			b.Children[oldRemainder[0]] = childHash
		}

		if len(newRemainder) == 0 {
			b.Value = value
			b.HasValue = true
		} else {
			childHash, err := t.persist(leaf(newRemainder[1:], value))
			if err != nil {
				return Node{}, err
			}
			b.Children[newRemainder[0]] = childHash
		}
		return b, nil

	case KindBranch:
		cpl := commonPrefixLen(n.Prefix, key)
		if cpl < len(n.Prefix) {
			// Split: the branch's own prefix diverges from key partway through.
			common := n.Prefix[:cpl]
			oldRemainder := n.Prefix[cpl:]
			newRemainder := key[cpl:]

			shortened := n
			shortened.Prefix = oldRemainder[1:]
			shortened.Children = cloneChildren(n.Children)
			shortenedHash, err := t.persist(shortened)
			if err != nil {
				return Node{}, err
			}

			nb := branch(common)
			nb.Children[oldRemainder[0]] = shortenedHash

			if len(newRemainder) == 0 {
				nb.Value = value
				nb.HasValue = true
			} else {
				leafHash, err := t.persist(leaf(newRemainder[1:], value))
				if err != nil {
					return Node{}, err
				}
				nb.Children[newRemainder[0]] = leafHash
			}
			return nb, nil
		}

		// n may be a node handed back by loadNode/the cache, whose Children
		// map is shared with that cache entry (and possibly with other
		// parents pointing at the same content hash under structural
		// sharing). Clone before mutating so we never corrupt it.
		n.Children = cloneChildren(n.Children)

		rest := key[cpl:]
		if len(rest) == 0 {
			n.Value = value
			n.HasValue = true
			return n, nil
		}

		nextByte := rest[0]
		remainder := rest[1:]
		var child Node
		if childHash, ok := n.Children[nextByte]; ok {
			var err error
			child, err = t.loadNode(childHash)
			if err != nil {
				return Node{}, err
			}
		} else {
			child = Empty()
		}

		newChild, err := t.insert(child, remainder, value)
		if err != nil {
			return Node{}, err
		}
		newChildHash, err := t.persist(newChild)
		if err != nil {
			return Node{}, err
		}
		n.Children[nextByte] = newChildHash
		return n, nil

	default:
		return leaf(key, value), nil
	}
}

// Remove deletes key if present, returning its prior value hash. Per
// spec.md §9, a branch whose last child and value are removed collapses to
// Empty, but a branch with exactly one remaining child is NOT collapsed
// into that child — this asymmetry is deliberate and documented.
func (t *Trie) Remove(key []byte) (hash.Hash, bool, error) {
	newRoot, removed, found, err := t.remove(t.root, key)
	if err != nil {
		return hash.Zero, false, err
	}
	if !found {
		return hash.Zero, false, nil
	}
	if !newRoot.IsEmpty() {
		if _, err := t.persist(newRoot); err != nil {
			return hash.Zero, false, err
		}
	}
	t.root = newRoot
	return removed, true, nil
}

func (t *Trie) remove(n Node, key []byte) (Node, hash.Hash, bool, error) {
	switch n.Kind {
	case KindEmpty:
		return n, hash.Zero, false, nil

	case KindLeaf:
		if bytesEqual(n.Prefix, key) {
			return Empty(), n.Value, true, nil
		}
		return n, hash.Zero, false, nil

	case KindBranch:
		cpl := commonPrefixLen(n.Prefix, key)
		if cpl < len(n.Prefix) {
			return n, hash.Zero, false, nil
		}
		rest := key[cpl:]

		if len(rest) == 0 {
			if !n.HasValue {
				return n, hash.Zero, false, nil
			}
			removed := n.Value
			n.Value = hash.Zero
			n.HasValue = false
			if len(n.Children) == 0 {
				return Empty(), removed, true, nil
			}
			return n, removed, true, nil
		}

		nextByte := rest[0]
		remainder := rest[1:]
		childHash, ok := n.Children[nextByte]
		if !ok {
			return n, hash.Zero, false, nil
		}
		child, err := t.loadNode(childHash)
		if err != nil {
			return n, hash.Zero, false, err
		}
		newChild, removed, found, err := t.remove(child, remainder)
		if err != nil || !found {
			return n, removed, found, err
		}

		// n's Children map may be shared with the cache entry (or another
		// parent under structural sharing); clone before mutating it.
		n.Children = cloneChildren(n.Children)

		if newChild.IsEmpty() {
			delete(n.Children, nextByte)
		} else {
			newChildHash, err := t.persist(newChild)
			if err != nil {
				return n, hash.Zero, false, err
			}
			n.Children[nextByte] = newChildHash
		}
		if len(n.Children) == 0 && !n.HasValue {
			return Empty(), removed, true, nil
		}
		return n, removed, true, nil

	default:
		return n, hash.Zero, false, nil
	}
}

// Commit persists the current root (idempotent if Insert/Remove already did
// so) and returns its hash, or the zero hash for an empty trie.
func (t *Trie) Commit() (hash.Hash, error) {
	if t.root.IsEmpty() {
		return hash.Zero, nil
	}
	return t.persist(t.root)
}

// ListPrefix returns every (key, value) pair whose key starts with prefix,
// in a deterministic (lexicographic) order.
func (t *Trie) ListPrefix(prefix []byte) ([]Entry, error) {
	var results []Entry
	if err := t.collectPrefix(t.root, nil, prefix, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (t *Trie) collectPrefix(n Node, accumulated, prefix []byte, results *[]Entry) error {
	switch n.Kind {
	case KindEmpty:
		return nil

	case KindLeaf:
		full := concat(accumulated, n.Prefix)
		if bytesHasPrefix(full, prefix) {
			*results = append(*results, Entry{Key: full, Value: n.Value})
		}
		return nil

	case KindBranch:
		here := concat(accumulated, n.Prefix)
		if !bytesHasPrefix(here, prefix) && !bytesHasPrefix(prefix, here) {
			return nil
		}
		if n.HasValue && bytesHasPrefix(here, prefix) {
			*results = append(*results, Entry{Key: cloneBytes(here), Value: n.Value})
		}
		keys := make([]byte, 0, len(n.Children))
		for k := range n.Children {
			keys = append(keys, k)
		}
		sortBytes(keys)
		for _, k := range keys {
			childHash := n.Children[k]
			child, err := t.loadNode(childHash)
			if err != nil {
				return err
			}
			childPath := concat(here, []byte{k})
			if err := t.collectPrefix(child, childPath, prefix, results); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

// cloneChildren copies a branch node's children map so callers can mutate
// the copy without corrupting a node shared with the node cache or with
// another parent via structural sharing.
func cloneChildren(m map[byte]hash.Hash) map[byte]hash.Hash {
	clone := make(map[byte]hash.Hash, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bytesHasPrefix(s, prefix []byte) bool {
	if len(prefix) > len(s) {
		return false
	}
	return bytesEqual(s[:len(prefix)], prefix)
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func sortBytes(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1] > b[j]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}
