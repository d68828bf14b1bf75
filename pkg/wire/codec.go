package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
)

// ErrMalformed is returned for any sync payload that does not parse
// as the frozen wire format, rather than panicking.
var ErrMalformed = errors.New("wire: malformed sync payload")

// The three structure names are frozen for backward compatibility:
// additional top-level entries may be added later, but these three
// names and their per-entry tuple shapes may not change.
const (
	StructureNodes = "nodes"
	StructureAtoms = "atoms"
	StructureEdges = "edges"
)

func putU64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
func getU64(b []byte) uint64    { return binary.BigEndian.Uint64(b) }

// EncodeOuter frames a set of named byte strings as the outer
// structure-name -> bytes map. Entries are emitted in ascending name
// order for determinism.
func EncodeOuter(parts map[string][]byte) []byte {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(names)))
	for _, name := range names {
		body := parts[name]
		nameBytes := []byte(name)

		entry := make([]byte, 2+len(nameBytes)+4)
		binary.BigEndian.PutUint16(entry[0:2], uint16(len(nameBytes)))
		copy(entry[2:2+len(nameBytes)], nameBytes)
		binary.BigEndian.PutUint32(entry[2+len(nameBytes):], uint32(len(body)))

		out = append(out, entry...)
		out = append(out, body...)
	}
	return out
}

// DecodeOuter parses the outer structure-name -> bytes map. Unknown
// names are preserved in the result, not rejected: decoders of a
// specific protocol version should ignore keys they do not recognize.
func DecodeOuter(data []byte) (map[string][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: outer header truncated", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(data[0:4])
	rest := data[4:]

	out := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: outer entry name length truncated", ErrMalformed)
		}
		nameLen := binary.BigEndian.Uint16(rest[0:2])
		rest = rest[2:]
		if len(rest) < int(nameLen) {
			return nil, fmt.Errorf("%w: outer entry name truncated", ErrMalformed)
		}
		name := string(rest[:nameLen])
		rest = rest[nameLen:]

		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: outer entry body length truncated", ErrMalformed)
		}
		bodyLen := binary.BigEndian.Uint32(rest[0:4])
		rest = rest[4:]
		if uint32(len(rest)) < bodyLen {
			return nil, fmt.Errorf("%w: outer entry body truncated", ErrMalformed)
		}
		out[name] = rest[:bodyLen]
		rest = rest[bodyLen:]
	}
	return out, nil
}

// EncodeVersion serializes a bucket->clock map in ascending bucket
// order.
func EncodeVersion(buckets map[uint64]uint64) []byte {
	keys := make([]uint64, 0, len(buckets))
	for b := range buckets {
		keys = append(keys, b)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]byte, 4, 4+16*len(keys))
	binary.BigEndian.PutUint32(out, uint32(len(keys)))
	for _, b := range keys {
		row := make([]byte, 16)
		putU64(row[0:8], b)
		putU64(row[8:16], buckets[b])
		out = append(out, row...)
	}
	return out
}

// DecodeVersion parses a bucket->clock map.
func DecodeVersion(data []byte) (map[uint64]uint64, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: version header truncated", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(data[0:4])
	rest := data[4:]
	if uint64(len(rest)) < uint64(count)*16 {
		return nil, fmt.Errorf("%w: version body truncated", ErrMalformed)
	}

	out := make(map[uint64]uint64, count)
	for i := uint32(0); i < count; i++ {
		row := rest[i*16 : i*16+16]
		out[getU64(row[0:8])] = getU64(row[8:16])
	}
	return out, nil
}

// encodeActionHeader builds the (id, bucket, clock, present) prefix shared by
// every action kind's wire row.
func encodeActionHeader(id gid.ID, bucket, clock uint64, present bool) []byte {
	row := make([]byte, 16+8+8+1)
	idb := id.Bytes()
	copy(row[0:16], idb[:])
	putU64(row[16:24], bucket)
	putU64(row[24:32], clock)
	if present {
		row[32] = 1
	}
	return row
}

func decodeActionHeader(row []byte) (id gid.ID, bucket, clock uint64, present bool, rest []byte, err error) {
	if len(row) < 33 {
		return gid.ID{}, 0, 0, false, nil, fmt.Errorf("%w: action header truncated", ErrMalformed)
	}
	id, err = gid.FromBytes(row[0:16])
	if err != nil {
		return gid.ID{}, 0, 0, false, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	bucket = getU64(row[16:24])
	clock = getU64(row[24:32])
	present = row[32] == 1
	return id, bucket, clock, present, row[33:], nil
}

// EncodeNodeActions serializes a node action list in ascending id
// order.
func EncodeNodeActions(actions []crdt.NodeAction) []byte {
	sorted := append([]crdt.NodeAction(nil), actions...)
	sort.Slice(sorted, func(i, j int) bool { return idLess(sorted[i].ID, sorted[j].ID) })

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(sorted)))
	for _, a := range sorted {
		row := encodeActionHeader(a.ID, a.Bucket, a.Clock, a.Value != nil)
		if a.Value != nil {
			label := make([]byte, 8)
			putU64(label, a.Value.Label)
			row = append(row, label...)
		}
		out = append(out, row...)
	}
	return out
}

// DecodeNodeActions parses a node action list.
func DecodeNodeActions(data []byte) ([]crdt.NodeAction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: node actions header truncated", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(data[0:4])
	rest := data[4:]

	out := make([]crdt.NodeAction, 0, count)
	for i := uint32(0); i < count; i++ {
		id, bucket, clock, present, tail, err := decodeActionHeader(rest)
		if err != nil {
			return nil, err
		}
		rest = tail

		var value *crdt.NodeValue
		if present {
			if len(rest) < 8 {
				return nil, fmt.Errorf("%w: node action payload truncated", ErrMalformed)
			}
			value = &crdt.NodeValue{Label: getU64(rest[0:8])}
			rest = rest[8:]
		}
		out = append(out, crdt.NodeAction{ID: id, Bucket: bucket, Clock: clock, Value: value})
	}
	return out, nil
}

// EncodeAtomActions serializes an atom action list in ascending id
// order.
func EncodeAtomActions(actions []crdt.AtomAction) []byte {
	sorted := append([]crdt.AtomAction(nil), actions...)
	sort.Slice(sorted, func(i, j int) bool { return idLess(sorted[i].ID, sorted[j].ID) })

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(sorted)))
	for _, a := range sorted {
		row := encodeActionHeader(a.ID, a.Bucket, a.Clock, a.Value != nil)
		if a.Value != nil {
			srcb := a.Value.Src.Bytes()
			payload := make([]byte, 16+8+4+len(a.Value.Value))
			copy(payload[0:16], srcb[:])
			putU64(payload[16:24], a.Value.Label)
			binary.BigEndian.PutUint32(payload[24:28], uint32(len(a.Value.Value)))
			copy(payload[28:], a.Value.Value)
			row = append(row, payload...)
		}
		out = append(out, row...)
	}
	return out
}

// DecodeAtomActions parses an atom action list.
func DecodeAtomActions(data []byte) ([]crdt.AtomAction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: atom actions header truncated", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(data[0:4])
	rest := data[4:]

	out := make([]crdt.AtomAction, 0, count)
	for i := uint32(0); i < count; i++ {
		id, bucket, clock, present, tail, err := decodeActionHeader(rest)
		if err != nil {
			return nil, err
		}
		rest = tail

		var value *crdt.AtomValue
		if present {
			if len(rest) < 16+8+4 {
				return nil, fmt.Errorf("%w: atom action payload truncated", ErrMalformed)
			}
			src, err := gid.FromBytes(rest[0:16])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			label := getU64(rest[16:24])
			n := binary.BigEndian.Uint32(rest[24:28])
			if uint32(len(rest[28:])) < n {
				return nil, fmt.Errorf("%w: atom action value truncated", ErrMalformed)
			}
			val := make([]byte, n)
			copy(val, rest[28:28+n])
			value = &crdt.AtomValue{Src: src, Label: label, Value: val}
			rest = rest[28+n:]
		}
		out = append(out, crdt.AtomAction{ID: id, Bucket: bucket, Clock: clock, Value: value})
	}
	return out, nil
}

// EncodeEdgeActions serializes an edge action list in ascending id
// order.
func EncodeEdgeActions(actions []crdt.EdgeAction) []byte {
	sorted := append([]crdt.EdgeAction(nil), actions...)
	sort.Slice(sorted, func(i, j int) bool { return idLess(sorted[i].ID, sorted[j].ID) })

	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(sorted)))
	for _, a := range sorted {
		row := encodeActionHeader(a.ID, a.Bucket, a.Clock, a.Value != nil)
		if a.Value != nil {
			srcb := a.Value.Src.Bytes()
			dstb := a.Value.Dst.Bytes()
			payload := make([]byte, 16+8+16)
			copy(payload[0:16], srcb[:])
			putU64(payload[16:24], a.Value.Label)
			copy(payload[24:40], dstb[:])
			row = append(row, payload...)
		}
		out = append(out, row...)
	}
	return out
}

// DecodeEdgeActions parses an edge action list.
func DecodeEdgeActions(data []byte) ([]crdt.EdgeAction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: edge actions header truncated", ErrMalformed)
	}
	count := binary.BigEndian.Uint32(data[0:4])
	rest := data[4:]

	out := make([]crdt.EdgeAction, 0, count)
	for i := uint32(0); i < count; i++ {
		id, bucket, clock, present, tail, err := decodeActionHeader(rest)
		if err != nil {
			return nil, err
		}
		rest = tail

		var value *crdt.EdgeValue
		if present {
			if len(rest) < 16+8+16 {
				return nil, fmt.Errorf("%w: edge action payload truncated", ErrMalformed)
			}
			src, err := gid.FromBytes(rest[0:16])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			label := getU64(rest[16:24])
			dst, err := gid.FromBytes(rest[24:40])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			value = &crdt.EdgeValue{Src: src, Label: label, Dst: dst}
			rest = rest[40:]
		}
		out = append(out, crdt.EdgeAction{ID: id, Bucket: bucket, Clock: clock, Value: value})
	}
	return out, nil
}

func idLess(a, b gid.ID) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}
	return a.Lo < b.Lo
}
