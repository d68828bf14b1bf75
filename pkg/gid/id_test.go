package gid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIsNonZeroAndUnique(t *testing.T) {
	a := New()
	b := New()

	require.False(t, a.IsZero())
	require.False(t, b.IsZero())
	require.NotEqual(t, a, b)
}

func TestBytesRoundTrip(t *testing.T) {
	want := New()

	got, err := FromBytes(want.Slice())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestHashLabelIsDeterministic(t *testing.T) {
	a := HashLabel("user.name")
	b := HashLabel("user.name")
	c := HashLabel("user.email")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
