package config

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndQuery(t *testing.T) {
	r := NewRegistry()
	r.AddStickyNode(100)
	r.AddAcyclicEdge(0)

	require.True(t, r.IsStickyNode(100))
	require.False(t, r.IsStickyNode(101))
	require.True(t, r.IsAcyclicEdge(0))
	require.False(t, r.IsStickyAtom(100))
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.AddStickyEdge(7)

	clone := r.Clone()
	r.AddStickyEdge(8)

	require.True(t, clone.IsStickyEdge(7))
	require.False(t, clone.IsStickyEdge(8))
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
stickyNodes:
  - user.account
stickyAtoms:
  - user.email
stickyEdges:
  - owns
acyclicEdges:
  - depends_on
`)

	r, err := Parse(doc)
	require.NoError(t, err)

	require.True(t, r.IsStickyNode(gid.HashLabel("user.account")))
	require.True(t, r.IsStickyAtom(gid.HashLabel("user.email")))
	require.True(t, r.IsStickyEdge(gid.HashLabel("owns")))
	require.True(t, r.IsAcyclicEdge(gid.HashLabel("depends_on")))
}
