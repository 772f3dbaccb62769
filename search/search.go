// Package search implements brute-force vector and keyword search over a
// graph.View.
package search

import (
	"sort"
	"strings"

	"github.com/moonstripe/indra-go/embed"
	"github.com/moonstripe/indra-go/entity"
)

// Result pairs a thought with its similarity score against a query vector.
type Result struct {
	Thought *entity.Thought
	Score   float32
}

// view is the subset of graph.View that search depends on.
type view interface {
	AllThoughts() ([]*entity.Thought, error)
}

// VectorSearch performs brute-force cosine-similarity search over every
// embedded thought in a view.
type VectorSearch struct {
	view view
}

// NewVectorSearch wraps v with vector search operations.
func NewVectorSearch(v view) *VectorSearch {
	return &VectorSearch{view: v}
}

// Search returns the topK thoughts most similar to queryVector, sorted by
// score descending with ties broken by thought ID ascending. Thoughts
// without an embedding are skipped.
func (s *VectorSearch) Search(queryVector []float32, topK int) ([]Result, error) {
	return s.SearchWithThreshold(queryVector, topK, nil)
}

// SearchWithThreshold is Search with an optional minimum score: results
// scoring below threshold (when non-nil) are excluded.
func (s *VectorSearch) SearchWithThreshold(queryVector []float32, topK int, threshold *float32) ([]Result, error) {
	thoughts, err := s.view.AllThoughts()
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, th := range thoughts {
		if len(th.Embedding) == 0 {
			continue
		}
		score := embed.CosineSimilarity(queryVector, th.Embedding)
		if threshold != nil && score < *threshold {
			continue
		}
		results = append(results, Result{Thought: th, Score: score})
	}

	sortResults(results)

	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// NearestNeighbors finds the topK thoughts most similar to the thought
// identified by id, excluding the thought itself.
func (s *VectorSearch) NearestNeighbors(id entity.ThoughtID, topK int) ([]Result, error) {
	thoughts, err := s.view.AllThoughts()
	if err != nil {
		return nil, err
	}

	var target *entity.Thought
	for _, th := range thoughts {
		if th.ID == id {
			target = th
			break
		}
	}
	if target == nil || len(target.Embedding) == 0 {
		return nil, nil
	}

	var results []Result
	for _, th := range thoughts {
		if th.ID == id || len(th.Embedding) == 0 {
			continue
		}
		score := embed.CosineSimilarity(target.Embedding, th.Embedding)
		results = append(results, Result{Thought: th, Score: score})
	}

	sortResults(results)

	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Thought.ID < results[j].Thought.ID
	})
}

// KeywordSearch returns every thought in v whose content contains query as
// a case-insensitive substring.
func KeywordSearch(v view, query string) ([]*entity.Thought, error) {
	thoughts, err := v.AllThoughts()
	if err != nil {
		return nil, err
	}

	lowerQuery := strings.ToLower(query)
	var results []*entity.Thought
	for _, th := range thoughts {
		if strings.Contains(strings.ToLower(th.Content), lowerQuery) {
			results = append(results, th)
		}
	}
	return results, nil
}
