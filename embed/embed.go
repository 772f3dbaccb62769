// Package embed defines the embedding interface used for semantic search
// and a deterministic mock implementation for tests and environments
// without a real model available.
package embed

import (
	"fmt"
	"math"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Dimension returns the length of vectors this embedder produces.
	Dimension() int
	// Embed generates an embedding for a single piece of text.
	Embed(text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(texts []string) ([][]float32, error)
	// ModelName identifies the underlying model.
	ModelName() string
}

// BatchByMap is a default EmbedBatch implementation for embedders that
// have no native batching API: it calls Embed once per text.
func BatchByMap(e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Returns 0 if either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("embed: vectors must have same dimension")
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	normA = float32(math.Sqrt(float64(normA)))
	normB = float32(math.Sqrt(float64(normB)))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

// EuclideanDistance returns the straight-line distance between a and b.
func EuclideanDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("embed: vectors must have same dimension")
	}

	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}
