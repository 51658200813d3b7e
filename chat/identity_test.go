package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeySymmetric(t *testing.T) {
	pairs := [][2]uint{{10, 20}, {20, 10}, {1, 99999}, {99999, 1}}
	for _, p := range pairs {
		a, err := DeriveKey(p[0], p[1], 77)
		require.NoError(t, err)
		b, err := DeriveKey(p[1], p[0], 77)
		require.NoError(t, err)
		require.Equal(t, a, b, "key must not depend on participant order")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	first, err := DeriveKey(10, 20, 77)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := DeriveKey(10, 20, 77)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestDeriveKeySeparatesProperties(t *testing.T) {
	a, err := DeriveKey(10, 20, 77)
	require.NoError(t, err)
	b, err := DeriveKey(10, 20, 78)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "same pair, different property must be a different conversation")
}

func TestDeriveKeyRejectsMissingIDs(t *testing.T) {
	cases := [][3]uint{{0, 20, 77}, {10, 0, 77}, {10, 20, 0}, {0, 0, 0}}
	for _, c := range cases {
		_, err := DeriveKey(c[0], c[1], c[2])
		require.ErrorIs(t, err, ErrInvalidIdentity)
	}
}
