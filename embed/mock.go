package embed

import (
	"math"

	"golang.org/x/crypto/blake2b"
)

const defaultMockDimension = 384

// MockEmbedder generates deterministic embeddings by repeatedly hashing
// text with BLAKE2b and mapping hash bytes into [-1, 1], then normalizing
// to unit length. Same text always produces the same embedding; it carries
// no semantic relationship between similar texts, which makes it useful
// for exercising search and storage plumbing without a real model.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder constructs a mock embedder producing vectors of the
// given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// NewDefaultMockEmbedder constructs a mock embedder with the default
// 384-dimension vectors.
func NewDefaultMockEmbedder() *MockEmbedder {
	return &MockEmbedder{dimension: defaultMockDimension}
}

func (m *MockEmbedder) Dimension() int { return m.dimension }

func (m *MockEmbedder) ModelName() string { return "mock-embedder" }

func (m *MockEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	return BatchByMap(m, texts)
}

func (m *MockEmbedder) Embed(text string) ([]float32, error) {
	currentHash := blake2b.Sum256([]byte(text))

	embedding := make([]float32, m.dimension)
	for i := 0; i < m.dimension; i++ {
		byteIndex := i % len(currentHash)
		if byteIndex == 0 && i > 0 {
			currentHash = blake2b.Sum256(currentHash[:])
		}
		b := currentHash[byteIndex]
		embedding[i] = (float32(b) / 127.5) - 1.0
	}

	var normSq float32
	for _, v := range embedding {
		normSq += v * v
	}
	norm := float32(math.Sqrt(float64(normSq)))
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding, nil
}
