package workspace

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/config"
	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/stretchr/testify/require"
)

func openTestWorkspace(t *testing.T, constraints *config.Registry) *Workspace {
	t.Helper()
	w, err := Open(":memory:", constraints)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func label(n uint64) gid.Label { return gid.Label(n) }

// Scenario 1: sticky node deletion cascade.
func TestBarrierStickyNodeDeletionCascade(t *testing.T) {
	constraints := config.NewRegistry()
	constraints.AddStickyNode(label(100))
	w := openTestWorkspace(t, constraints)

	n0, n1, e0 := gid.New(), gid.New(), gid.New()
	l0, l100, l2 := label(0), label(100), label(2)

	_, err := w.SetNode(n0, &l0)
	require.NoError(t, err)
	_, err = w.SetNode(n1, &l100)
	require.NoError(t, err)
	_, err = w.SetEdge(e0, &crdt.EdgeValue{Src: n0, Label: l2, Dst: n1})
	require.NoError(t, err)

	_, err = w.Barrier()
	require.NoError(t, err)

	v0, err := w.Node(n0)
	require.NoError(t, err)
	require.NotNil(t, v0)
	v1, err := w.Node(n1)
	require.NoError(t, err)
	require.NotNil(t, v1)
	ve0, err := w.Edge(e0)
	require.NoError(t, err)
	require.NotNil(t, ve0)

	l2333 := label(2333)
	_, err = w.SetNode(n1, &l2333)
	require.NoError(t, err)
	_, err = w.Barrier()
	require.NoError(t, err)

	v1, err = w.Node(n1)
	require.NoError(t, err)
	require.Nil(t, v1)

	ve0, err = w.Edge(e0)
	require.NoError(t, err)
	require.Nil(t, ve0)

	v0, err = w.Node(n0)
	require.NoError(t, err)
	require.NotNil(t, v0)
}

// Scenario 2: atom-implies-node.
func TestBarrierAtomImpliesNode(t *testing.T) {
	w := openTestWorkspace(t, nil)

	n0 := gid.New()
	l0 := label(0)
	_, err := w.SetNode(n0, &l0)
	require.NoError(t, err)

	a0 := gid.New()
	unrelated := gid.New()
	_, err = w.SetAtom(a0, &crdt.AtomValue{Src: unrelated, Label: label(5), Value: nil})
	require.NoError(t, err)

	_, err = w.Barrier()
	require.NoError(t, err)

	v, err := w.Atom(a0)
	require.NoError(t, err)
	require.Nil(t, v)
}

// Scenario 3: acyclic constraint.
func TestBarrierAcyclicConstraint(t *testing.T) {
	constraints := config.NewRegistry()
	constraints.AddAcyclicEdge(label(0))
	w := openTestWorkspace(t, constraints)

	nodes := make([]gid.ID, 4)
	l0 := label(0)
	for i := range nodes {
		nodes[i] = gid.New()
		_, err := w.SetNode(nodes[i], &l0)
		require.NoError(t, err)
	}

	edges := make([]gid.ID, 3)
	for i := 0; i < 3; i++ {
		edges[i] = gid.New()
		_, err := w.SetEdge(edges[i], &crdt.EdgeValue{Src: nodes[i], Label: l0, Dst: nodes[i+1]})
		require.NoError(t, err)
	}

	_, err := w.Barrier()
	require.NoError(t, err)

	for i, e := range edges {
		v, err := w.Edge(e)
		require.NoError(t, err)
		require.NotNilf(t, v, "edge %d should still exist", i)
	}

	e3 := gid.New()
	_, err = w.SetEdge(e3, &crdt.EdgeValue{Src: nodes[2], Label: l0, Dst: nodes[0]})
	require.NoError(t, err)

	_, err = w.Barrier()
	require.NoError(t, err)

	v, err := w.Edge(e3)
	require.NoError(t, err)
	require.Nil(t, v, "cycle-closing edge must be deleted")

	edgeLabelNoCycle := checkNoDirectedCycle(t, w, nodes, l0)
	require.True(t, edgeLabelNoCycle)
}

func checkNoDirectedCycle(t *testing.T, w *Workspace, nodes []gid.ID, l gid.Label) bool {
	t.Helper()
	visited := make(map[gid.ID]bool)
	var dfs func(start, cur gid.ID, depth int) bool
	dfs = func(start, cur gid.ID, depth int) bool {
		if depth > len(nodes)+1 {
			return false
		}
		refs, err := w.EdgeIDDstBySrcLabel(cur, l)
		require.NoError(t, err)
		for _, ref := range refs {
			if ref.Dst == start {
				return true
			}
			if !visited[ref.Dst] {
				visited[ref.Dst] = true
				if dfs(start, ref.Dst, depth+1) {
					return true
				}
			}
		}
		return false
	}
	for _, n := range nodes {
		visited = map[gid.ID]bool{}
		if dfs(n, n, 0) {
			return false
		}
	}
	return true
}

// Scenario 6: barrier emptiness.
func TestBarrierEmptyWhenNoMutations(t *testing.T) {
	w := openTestWorkspace(t, nil)

	events, err := w.Barrier()
	require.NoError(t, err)
	require.True(t, events.Empty())
}

// Barrier fixpoint: invoking Barrier twice with no intervening
// mutation yields an empty event list the second time.
func TestBarrierFixpoint(t *testing.T) {
	w := openTestWorkspace(t, nil)

	n0 := gid.New()
	l0 := label(0)
	_, err := w.SetNode(n0, &l0)
	require.NoError(t, err)

	first, err := w.Barrier()
	require.NoError(t, err)
	require.False(t, first.Empty())

	second, err := w.Barrier()
	require.NoError(t, err)
	require.True(t, second.Empty())
}
