// Package indexer builds a disposable, pebble-backed keyword index over a
// database's thoughts. It is never the system of record: deleting the index
// directory and rebuilding it from the object store must always reproduce
// the same index, so it cannot carry any durability guarantee of its own.
package indexer

import (
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/moonstripe/indra-go/entity"
)

const wordPrefix = "w:"

// Index is a pebble database mapping lowercased words to the thought ids
// whose content contains them.
type Index struct {
	db *pebble.DB
}

// Open opens (creating if necessary) the keyword index at path.
func Open(path string) (*Index, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the underlying pebble handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Rebuild clears the index and re-derives it from the given thoughts.
func (ix *Index) Rebuild(thoughts []*entity.Thought) error {
	iter, err := ix.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	batch := ix.db.NewBatch()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := batch.Delete(iter.Key(), nil); err != nil {
			_ = iter.Close()
			return err
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}

	for _, th := range thoughts {
		if err := ix.indexThought(th); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) indexThought(th *entity.Thought) error {
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(th.Content)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true

		key := wordKey(word, th.ID)
		if err := ix.db.Set(key, []byte(th.ID), pebble.Sync); err != nil {
			return err
		}
	}
	return nil
}

func wordKey(word string, id entity.ThoughtID) []byte {
	return []byte(wordPrefix + word + ":" + string(id))
}

// Lookup returns the distinct thought ids indexed under word.
func (ix *Index) Lookup(word string) ([]entity.ThoughtID, error) {
	word = strings.ToLower(word)
	prefix := []byte(wordPrefix + word + ":")
	upper := append(append([]byte{}, prefix...), 0xff)

	iter, err := ix.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []entity.ThoughtID
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, entity.ThoughtID(iter.Value()))
	}
	return ids, iter.Error()
}
