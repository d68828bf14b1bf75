package wire

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestVersionRoundTrip(t *testing.T) {
	in := map[uint64]uint64{1: 10, 2: 20, 5: 99}
	out, err := DecodeVersion(EncodeVersion(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestNodeActionsRoundTrip(t *testing.T) {
	label := gid.HashLabel("person")
	actions := []crdt.NodeAction{
		{ID: gid.New(), Bucket: 1, Clock: 10, Value: &crdt.NodeValue{Label: label}},
		{ID: gid.New(), Bucket: 1, Clock: 20, Value: nil},
	}
	out, err := DecodeNodeActions(EncodeNodeActions(actions))
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := make(map[gid.ID]*crdt.NodeValue, len(out))
	for _, a := range out {
		byID[a.ID] = a.Value
	}
	for _, want := range actions {
		if diff := cmp.Diff(want.Value, byID[want.ID]); diff != "" {
			t.Errorf("action %s mismatch (-want +got):\n%s", want.ID, diff)
		}
	}
}

func TestAtomActionsRoundTrip(t *testing.T) {
	src := gid.New()
	label := gid.HashLabel("weight")
	actions := []crdt.AtomAction{
		{ID: gid.New(), Bucket: 3, Clock: 7, Value: &crdt.AtomValue{Src: src, Label: label, Value: []byte("42")}},
	}
	out, err := DecodeAtomActions(EncodeAtomActions(actions))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, actions[0].ID, out[0].ID)
	require.Equal(t, "42", string(out[0].Value.Value))
	require.Equal(t, src, out[0].Value.Src)
}

func TestEdgeActionsRoundTrip(t *testing.T) {
	src, dst := gid.New(), gid.New()
	label := gid.HashLabel("follows")
	actions := []crdt.EdgeAction{
		{ID: gid.New(), Bucket: 9, Clock: 1, Value: &crdt.EdgeValue{Src: src, Label: label, Dst: dst}},
	}
	out, err := DecodeEdgeActions(EncodeEdgeActions(actions))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, dst, out[0].Value.Dst)
}

func TestOuterRoundTrip(t *testing.T) {
	parts := map[string][]byte{
		StructureNodes: EncodeVersion(map[uint64]uint64{1: 5}),
		StructureAtoms: EncodeVersion(map[uint64]uint64{2: 9}),
		StructureEdges: EncodeVersion(nil),
	}
	out, err := DecodeOuter(EncodeOuter(parts))
	require.NoError(t, err)
	require.Len(t, out, 3)

	nodesV, err := DecodeVersion(out[StructureNodes])
	require.NoError(t, err)
	require.Equal(t, map[uint64]uint64{1: 5}, nodesV)
}

func TestDecodeOuterMalformed(t *testing.T) {
	_, err := DecodeOuter([]byte{0, 0, 0})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeVersionMalformed(t *testing.T) {
	_, err := DecodeVersion([]byte{0, 0, 0, 1})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeNodeActionsMalformed(t *testing.T) {
	_, err := DecodeNodeActions([]byte{0, 0, 0, 1, 1, 2, 3})
	require.ErrorIs(t, err, ErrMalformed)
}
