package crdt

import (
	"testing"

	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/stretchr/testify/require"
)

func TestEdgeSetSetAndGet(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "edges.buckets")
	require.NoError(t, err)
	set, err := OpenEdgeSet(store, meta)
	require.NoError(t, err)

	src, dst := gid.New(), gid.New()
	id := gid.New()
	label := gid.HashLabel("follows")

	applied, err := set.Set(id, 1, 10, &EdgeValue{Src: src, Label: label, Dst: dst})
	require.NoError(t, err)
	require.True(t, applied)

	v, err := set.Get(id)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, dst, v.Dst)
}

func TestEdgeSetBySrcAndByDst(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "edges.buckets")
	require.NoError(t, err)
	set, err := OpenEdgeSet(store, meta)
	require.NoError(t, err)

	src, dst := gid.New(), gid.New()
	id := gid.New()
	label := gid.HashLabel("follows")

	_, err = set.Set(id, 1, 10, &EdgeValue{Src: src, Label: label, Dst: dst})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	bySrc, err := set.BySrc(src)
	require.NoError(t, err)
	require.Len(t, bySrc, 1)
	require.Equal(t, dst, bySrc[0].Dst)

	byDst, err := set.ByDst(dst)
	require.NoError(t, err)
	require.Len(t, byDst, 1)
	require.Equal(t, src, byDst[0].Src)

	bySrcLabel, err := set.BySrcLabel(src, label)
	require.NoError(t, err)
	require.Len(t, bySrcLabel, 1)

	byDstLabel, err := set.ByDstLabel(dst, label)
	require.NoError(t, err)
	require.Len(t, byDstLabel, 1)
}

func TestEdgeSetDeletionClearsIndices(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "edges.buckets")
	require.NoError(t, err)
	set, err := OpenEdgeSet(store, meta)
	require.NoError(t, err)

	src, dst := gid.New(), gid.New()
	id := gid.New()
	label := gid.HashLabel("follows")

	_, err = set.Set(id, 1, 10, &EdgeValue{Src: src, Label: label, Dst: dst})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	_, err = set.Set(id, 1, 20, nil)
	require.NoError(t, err)
	require.NoError(t, set.Save())

	v, err := set.Get(id)
	require.NoError(t, err)
	require.Nil(t, v)

	refs, err := set.BySrc(src)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestEdgeSetMods(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "edges.buckets")
	require.NoError(t, err)
	set, err := OpenEdgeSet(store, meta)
	require.NoError(t, err)

	src, dst := gid.New(), gid.New()
	id := gid.New()
	label := gid.HashLabel("follows")

	_, err = set.Set(id, 1, 10, &EdgeValue{Src: src, Label: label, Dst: dst})
	require.NoError(t, err)

	mods := set.Mods()
	require.Len(t, mods, 1)
	require.Nil(t, mods[0].Prev)
	require.NotNil(t, mods[0].Curr)
}

func TestEdgeSetCountExcludesTombstones(t *testing.T) {
	store := newTestStore(t)
	meta, err := OpenMetadata(store, "edges.buckets")
	require.NoError(t, err)
	set, err := OpenEdgeSet(store, meta)
	require.NoError(t, err)

	src, dst := gid.New(), gid.New()
	id := gid.New()
	label := gid.HashLabel("follows")

	_, err = set.Set(id, 1, 10, &EdgeValue{Src: src, Label: label, Dst: dst})
	require.NoError(t, err)
	require.NoError(t, set.Save())

	n, err := set.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = set.Set(id, 1, 20, nil)
	require.NoError(t, err)
	require.NoError(t, set.Save())

	n, err = set.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
