package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest([]byte("hello"))
	b := Digest([]byte("hello"))
	require.Equal(t, a, b)
}

func TestDigestManyMatchesConcatenation(t *testing.T) {
	a := DigestMany([]byte("foo"), []byte("bar"))
	b := Digest([]byte("foobar"))
	require.Equal(t, a, b)
}

func TestZeroIsZero(t *testing.T) {
	require.True(t, Zero.IsZero())
	require.False(t, Digest([]byte("x")).IsZero())
}

func TestHexRoundTrip(t *testing.T) {
	h := Digest([]byte("round trip"))
	s := h.String()
	require.Len(t, s, 64)

	parsed, err := FromHex(s)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	_, err := FromHex("abcd")
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestFromHexCaseInsensitive(t *testing.T) {
	h := Digest([]byte("case"))
	upper, err := FromHex(strings.ToUpper(h.String()))
	require.NoError(t, err)
	require.Equal(t, h, upper)
}

func TestShort(t *testing.T) {
	h := Digest([]byte("short form"))
	require.Len(t, h.Short(), 7)
	require.Equal(t, h.String()[:7], h.Short())
}

func TestLess(t *testing.T) {
	a := Hash{0x01}
	b := Hash{0x02}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}
