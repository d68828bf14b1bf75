package crdt

import (
	"encoding/binary"
	"fmt"

	"github.com/cuemby/graphstore/pkg/gid"
)

// Row encoding: all fixed-width fields are big-endian so that a
// store's natural byte ordering matches numeric ordering wherever it
// matters (the (bucket,clock) index in particular). Layout:
//
//	bucket(8) clock(8) present(1) [payload...]

func encodeHeader(bucket, clock uint64, present bool) []byte {
	b := make([]byte, 17)
	binary.BigEndian.PutUint64(b[0:8], bucket)
	binary.BigEndian.PutUint64(b[8:16], clock)
	if present {
		b[16] = 1
	}
	return b
}

func decodeHeader(row []byte) (bucket, clock uint64, present bool, rest []byte, err error) {
	if len(row) < 17 {
		return 0, 0, false, nil, fmt.Errorf("crdt: row too short: %d bytes", len(row))
	}
	bucket = binary.BigEndian.Uint64(row[0:8])
	clock = binary.BigEndian.Uint64(row[8:16])
	present = row[16] == 1
	return bucket, clock, present, row[17:], nil
}

func encodeNodeRow(bucket, clock uint64, v *NodeValue) []byte {
	row := encodeHeader(bucket, clock, v != nil)
	if v == nil {
		return row
	}
	label := make([]byte, 8)
	binary.BigEndian.PutUint64(label, v.Label)
	return append(row, label...)
}

func decodeNodeRow(row []byte) (bucket, clock uint64, v *NodeValue, err error) {
	bucket, clock, present, rest, err := decodeHeader(row)
	if err != nil || !present {
		return bucket, clock, nil, err
	}
	if len(rest) < 8 {
		return 0, 0, nil, fmt.Errorf("crdt: truncated node payload")
	}
	return bucket, clock, &NodeValue{Label: binary.BigEndian.Uint64(rest[0:8])}, nil
}

func encodeAtomRow(bucket, clock uint64, v *AtomValue) []byte {
	row := encodeHeader(bucket, clock, v != nil)
	if v == nil {
		return row
	}
	buf := make([]byte, 0, 16+8+4+len(v.Value))
	src := v.Src.Bytes()
	buf = append(buf, src[:]...)
	label := make([]byte, 8)
	binary.BigEndian.PutUint64(label, v.Label)
	buf = append(buf, label...)
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(v.Value)))
	buf = append(buf, length...)
	buf = append(buf, v.Value...)
	return append(row, buf...)
}

func decodeAtomRow(row []byte) (bucket, clock uint64, v *AtomValue, err error) {
	bucket, clock, present, rest, err := decodeHeader(row)
	if err != nil || !present {
		return bucket, clock, nil, err
	}
	if len(rest) < 16+8+4 {
		return 0, 0, nil, fmt.Errorf("crdt: truncated atom payload")
	}
	src, err := gid.FromBytes(rest[0:16])
	if err != nil {
		return 0, 0, nil, err
	}
	label := binary.BigEndian.Uint64(rest[16:24])
	n := binary.BigEndian.Uint32(rest[24:28])
	if uint32(len(rest[28:])) < n {
		return 0, 0, nil, fmt.Errorf("crdt: truncated atom value bytes")
	}
	value := make([]byte, n)
	copy(value, rest[28:28+n])
	return bucket, clock, &AtomValue{Src: src, Label: label, Value: value}, nil
}

func encodeEdgeRow(bucket, clock uint64, v *EdgeValue) []byte {
	row := encodeHeader(bucket, clock, v != nil)
	if v == nil {
		return row
	}
	buf := make([]byte, 0, 16+8+16)
	src := v.Src.Bytes()
	buf = append(buf, src[:]...)
	label := make([]byte, 8)
	binary.BigEndian.PutUint64(label, v.Label)
	buf = append(buf, label...)
	dst := v.Dst.Bytes()
	buf = append(buf, dst[:]...)
	return append(row, buf...)
}

func decodeEdgeRow(row []byte) (bucket, clock uint64, v *EdgeValue, err error) {
	bucket, clock, present, rest, err := decodeHeader(row)
	if err != nil || !present {
		return bucket, clock, nil, err
	}
	if len(rest) < 16+8+16 {
		return 0, 0, nil, fmt.Errorf("crdt: truncated edge payload")
	}
	src, err := gid.FromBytes(rest[0:16])
	if err != nil {
		return 0, 0, nil, err
	}
	label := binary.BigEndian.Uint64(rest[16:24])
	dst, err := gid.FromBytes(rest[24:40])
	if err != nil {
		return 0, 0, nil, err
	}
	return bucket, clock, &EdgeValue{Src: src, Label: label, Dst: dst}, nil
}

func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeU64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// lessClockBucket reports whether (clockA,bucketA) is strictly less
// than (clockB,bucketB) under the LWW tie-break rule: higher clock
// wins; on equal clock, higher bucket wins.
func lessClockBucket(clockA, bucketA, clockB, bucketB uint64) bool {
	if clockA != clockB {
		return clockA < clockB
	}
	return bucketA < bucketB
}
