package blob

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b := New(Thought, []byte(`{"content":"hello"}`))

	encoded, err := b.Compress()
	require.NoError(t, err)

	decoded, err := Decompress(encoded)
	require.NoError(t, err)

	require.Equal(t, b.Type, decoded.Type)
	require.Equal(t, b.Data, decoded.Data)
}

func TestHashIncludesType(t *testing.T) {
	a := New(Thought, []byte("same bytes"))
	e := New(Edge, []byte("same bytes"))

	require.NotEqual(t, a.Hash(), e.Hash())
}

func TestDecompressRejectsUnknownType(t *testing.T) {
	_, err := Decompress([]byte{0xFF})
	require.Error(t, err)
}

func TestDecompressRejectsEmpty(t *testing.T) {
	_, err := Decompress(nil)
	require.Error(t, err)
}
