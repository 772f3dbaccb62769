package embed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1.0, 2.0, 3.0}
	require.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float32{1.0, 0.0, 0.0}
	b := []float32{-1.0, 0.0, 0.0}
	require.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-6)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1.0, 0.0, 0.0}
	b := []float32{0.0, 1.0, 0.0}
	require.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-6)
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	a := []float32{0.0, 0.0, 0.0}
	b := []float32{1.0, 0.0, 0.0}
	require.Equal(t, float32(0), CosineSimilarity(a, b))
}

func TestEuclideanDistanceSame(t *testing.T) {
	v := []float32{1.0, 2.0, 3.0}
	require.InDelta(t, 0.0, math.Abs(float64(EuclideanDistance(v, v))), 1e-6)
}

func TestEuclideanDistanceKnown(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	require.InDelta(t, 5.0, EuclideanDistance(a, b), 1e-6)
}

func TestMockEmbedderDimension(t *testing.T) {
	e := NewMockEmbedder(128)
	require.Equal(t, 128, e.Dimension())

	v, err := e.Embed("test")
	require.NoError(t, err)
	require.Len(t, v, 128)
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewDefaultMockEmbedder()

	e1, err := e.Embed("hello world")
	require.NoError(t, err)
	e2, err := e.Embed("hello world")
	require.NoError(t, err)

	require.Equal(t, e1, e2)
}

func TestMockEmbedderDifferentTexts(t *testing.T) {
	e := NewDefaultMockEmbedder()

	e1, err := e.Embed("hello")
	require.NoError(t, err)
	e2, err := e.Embed("world")
	require.NoError(t, err)

	require.NotEqual(t, e1, e2)
}

func TestMockEmbedderNormalized(t *testing.T) {
	e := NewDefaultMockEmbedder()
	v, err := e.Embed("test")
	require.NoError(t, err)

	var normSq float64
	for _, x := range v {
		normSq += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(normSq), 1e-4)
}

func TestMockEmbedderBatch(t *testing.T) {
	e := NewDefaultMockEmbedder()
	vs, err := e.EmbedBatch([]string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vs, 3)

	single, err := e.Embed("b")
	require.NoError(t, err)
	require.Equal(t, single, vs[1])
}
