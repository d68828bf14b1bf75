package workspace

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/stretchr/testify/require"
)

func exchangeSync(t *testing.T, a, b *Workspace) {
	t.Helper()

	vA, err := a.SyncVersion()
	require.NoError(t, err)
	vB, err := b.SyncVersion()
	require.NoError(t, err)

	actionsForB, err := a.SyncActions(vB)
	require.NoError(t, err)
	actionsForA, err := b.SyncActions(vA)
	require.NoError(t, err)

	require.NoError(t, a.SyncJoin(actionsForA))
	require.NoError(t, b.SyncJoin(actionsForB))

	_, err = a.Barrier()
	require.NoError(t, err)
	_, err = b.Barrier()
	require.NoError(t, err)

	require.NoError(t, a.Commit())
	require.NoError(t, b.Commit())
}

// Scenario 4: sync convergence.
func TestSyncConvergence(t *testing.T) {
	a := openTestWorkspace(t, nil)
	b := openTestWorkspace(t, nil)

	labelsA := []uint64{0, 1, 2, 3}
	idsA := make(map[uint64]gid.ID)
	for _, l := range labelsA {
		id := gid.New()
		idsA[l] = id
		lbl := label(l)
		_, err := a.SetNode(id, &lbl)
		require.NoError(t, err)
	}
	require.NoError(t, a.Commit())

	labelsB := []uint64{4, 5}
	idsB := make(map[uint64]gid.ID)
	for _, l := range labelsB {
		id := gid.New()
		idsB[l] = id
		lbl := label(l)
		_, err := b.SetNode(id, &lbl)
		require.NoError(t, err)
	}
	require.NoError(t, b.Commit())

	exchangeSync(t, a, b)

	for _, l := range labelsA {
		va, err := a.Node(idsA[l])
		require.NoError(t, err)
		vb, err := b.Node(idsA[l])
		require.NoError(t, err)
		require.NotNil(t, va)
		require.NotNil(t, vb)
		require.Equal(t, uint64(l), va.Label)
		require.Equal(t, va.Label, vb.Label)
	}
	for _, l := range labelsB {
		va, err := a.Node(idsB[l])
		require.NoError(t, err)
		vb, err := b.Node(idsB[l])
		require.NoError(t, err)
		require.NotNil(t, va)
		require.NotNil(t, vb)
		require.Equal(t, vb.Label, va.Label)
	}
}

// Scenario 5: LWW tie-break on identical clocks from distinct buckets.
// Both replicas must agree on the write from the higher bucket.
func TestSyncLWWTieBreak(t *testing.T) {
	a := openTestWorkspace(t, nil)
	b := openTestWorkspace(t, nil)
	require.NotEqual(t, a.Bucket(), b.Bucket())

	x := gid.New()
	n := gid.New()

	lbl := label(0)
	_, err := a.SetNode(n, &lbl)
	require.NoError(t, err)
	_, err = a.atoms.Set(x, a.Bucket(), 1000, &crdt.AtomValue{Src: n, Label: 1, Value: []byte{0x01}})
	require.NoError(t, err)
	require.NoError(t, a.Commit())

	_, err = b.SetNode(n, &lbl)
	require.NoError(t, err)
	_, err = b.atoms.Set(x, b.Bucket(), 1000, &crdt.AtomValue{Src: n, Label: 1, Value: []byte{0x01}})
	require.NoError(t, err)
	require.NoError(t, b.Commit())

	exchangeSync(t, a, b)

	va, err := a.Atom(x)
	require.NoError(t, err)
	vb, err := b.Atom(x)
	require.NoError(t, err)
	require.NotNil(t, va)
	require.NotNil(t, vb)
	require.Equal(t, va, vb, "both replicas must converge on the higher-bucket write")
}

// Idempotence of sync: applying the same SyncActions output twice
// produces the same state as applying it once.
func TestSyncJoinIdempotent(t *testing.T) {
	a := openTestWorkspace(t, nil)
	b := openTestWorkspace(t, nil)

	id := gid.New()
	lbl := label(7)
	_, err := a.SetNode(id, &lbl)
	require.NoError(t, err)
	require.NoError(t, a.Commit())

	vB, err := b.SyncVersion()
	require.NoError(t, err)
	actions, err := a.SyncActions(vB)
	require.NoError(t, err)

	require.NoError(t, b.SyncJoin(actions))
	_, err = b.Barrier()
	require.NoError(t, err)

	first, err := b.Node(id)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, b.SyncJoin(actions))
	_, err = b.Barrier()
	require.NoError(t, err)

	second, err := b.Node(id)
	require.NoError(t, err)
	require.Equal(t, first.Label, second.Label)
}
