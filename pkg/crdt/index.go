package crdt

import (
	"sort"

	"github.com/cuemby/graphstore/pkg/gid"
)

// compositeKey builds the (bucket, clock, id) secondary-index key
// used by every structure's byBucketClock index. Fixed-width
// big-endian encoding keeps cursor order equal to (bucket, clock, id)
// lexicographic order.
func compositeKey(bucket, clock uint64, id gid.ID) []byte {
	key := make([]byte, 0, 32)
	key = append(key, encodeU64(bucket)...)
	key = append(key, encodeU64(clock)...)
	idb := id.Bytes()
	key = append(key, idb[:]...)
	return key
}

// labelIDKey builds a (label, id) secondary-index key, used by the
// node set's byLabel index.
func labelIDKey(label gid.Label, id gid.ID) []byte {
	key := make([]byte, 0, 24)
	key = append(key, encodeU64(label)...)
	idb := id.Bytes()
	key = append(key, idb[:]...)
	return key
}

// srcLabelIDKey builds a (src, label, id) secondary-index key, used
// by the atom and edge sets' bySrcLabel index.
func srcLabelIDKey(src gid.ID, label gid.Label, id gid.ID) []byte {
	key := make([]byte, 0, 16+8+16)
	srcb := src.Bytes()
	key = append(key, srcb[:]...)
	key = append(key, encodeU64(label)...)
	idb := id.Bytes()
	key = append(key, idb[:]...)
	return key
}

// labelValueIDKey builds a (label, value, id) secondary-index key,
// used by the atom set's byLabelValue index. value is length-prefixed
// so the id suffix remains unambiguous regardless of value's content.
func labelValueIDKey(label gid.Label, value []byte, id gid.ID) []byte {
	key := make([]byte, 0, 8+4+len(value)+16)
	key = append(key, encodeU64(label)...)
	length := make([]byte, 4)
	be32(length, uint32(len(value)))
	key = append(key, length...)
	key = append(key, value...)
	idb := id.Bytes()
	key = append(key, idb[:]...)
	return key
}

func be32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func idLess(a, b gid.ID) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}
	return a.Lo < b.Lo
}

func sortedIDs(set map[gid.ID]struct{}) []gid.ID {
	out := make([]gid.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i], out[j]) })
	return out
}

func sortedBuckets(m map[uint64]uint64) []uint64 {
	out := make([]uint64, 0, len(m))
	for b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
