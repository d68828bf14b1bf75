package crdt

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/stretchr/testify/require"
)

func TestAtomSetSetAndGet(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	src := gid.New()
	id := gid.New()
	label := gid.HashLabel("weight")

	applied, err := set.Set(id, 1, 10, &AtomValue{Src: src, Label: label, Value: []byte("42")})
	require.NoError(t, err)
	require.True(t, applied)

	v, err := set.Get(id)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "42", string(v.Value))
}

func TestAtomSetStaleWriteRejected(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	id := gid.New()
	src := gid.New()
	label := gid.HashLabel("k")

	_, err = set.Set(id, 1, 10, &AtomValue{Src: src, Label: label, Value: []byte("a")})
	require.NoError(t, err)

	applied, err := set.Set(id, 1, 5, &AtomValue{Src: src, Label: label, Value: []byte("b")})
	require.NoError(t, err)
	require.False(t, applied)

	v, err := set.Get(id)
	require.NoError(t, err)
	require.Equal(t, "a", string(v.Value))
}

func TestAtomSetIndicesSurviveSave(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	src := gid.New()
	id := gid.New()
	label := gid.HashLabel("weight")

	_, err = set.Set(id, 1, 10, &AtomValue{Src: src, Label: label, Value: []byte("42")})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	refs, err := set.BySrc(src)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, id, refs[0].ID)

	refs, err = set.ByLabelValue(label, []byte("42"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, src, refs[0].Src)
}

func TestAtomSetReassignMovesIndices(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	src1 := gid.New()
	src2 := gid.New()
	id := gid.New()
	label := gid.HashLabel("weight")

	_, err = set.Set(id, 1, 10, &AtomValue{Src: src1, Label: label, Value: []byte("a")})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	_, err = set.Set(id, 1, 20, &AtomValue{Src: src2, Label: label, Value: []byte("b")})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	refs, err := set.BySrc(src1)
	require.NoError(t, err)
	require.Empty(t, refs)

	refs, err = set.BySrc(src2)
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestAtomSetActionsOrderedByClock(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	src := gid.New()
	label := gid.HashLabel("k")
	idA, idB := gid.New(), gid.New()

	_, err = set.Set(idA, 1, 10, &AtomValue{Src: src, Label: label, Value: []byte("a")})
	require.NoError(t, err)
	_, err = set.Set(idB, 1, 20, &AtomValue{Src: src, Label: label, Value: []byte("b")})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	actions, err := set.Actions(map[uint64]uint64{})
	require.NoError(t, err)
	require.Len(t, actions, 2)
	require.Equal(t, uint64(10), actions[0].Clock)
	require.Equal(t, uint64(20), actions[1].Clock)
}

func TestAtomSetCountExcludesTombstones(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "atoms.buckets")
	require.NoError(t, err)
	set, err := OpenAtomSet(store, meta)
	require.NoError(t, err)

	src := gid.New()
	label := gid.HashLabel("weight")
	idA, idB := gid.New(), gid.New()

	_, err = set.Set(idA, 1, 10, &AtomValue{Src: src, Label: label, Value: []byte("a")})
	require.NoError(t, err)
	_, err = set.Set(idB, 1, 20, &AtomValue{Src: src, Label: label, Value: []byte("b")})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	n, err := set.Count()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = set.Set(idA, 1, 30, nil)
	require.NoError(t, err)
	require.NoError(t, set.Save())

	n, err = set.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
