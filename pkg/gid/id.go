package gid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ID is a 128-bit identifier, opaque and globally unique by
// generation. It is split into two 64-bit halves, Hi and Lo, at the
// external interface.
type ID struct {
	Hi uint64
	Lo uint64
}

// Zero is the all-zero id. It is never produced by New and is used by
// callers as a sentinel "no id" value.
var Zero ID

// New generates a fresh, random id with overwhelming probability of
// global uniqueness.
func New() ID {
	u := uuid.New()
	return ID{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// Bytes encodes id as a 16-byte big-endian array, Hi then Lo.
func (id ID) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], id.Hi)
	binary.BigEndian.PutUint64(b[8:16], id.Lo)
	return b
}

// Slice is Bytes as a []byte, convenient for use as a kv key.
func (id ID) Slice() []byte {
	b := id.Bytes()
	return b[:]
}

// FromBytes decodes a 16-byte big-endian slice produced by Bytes.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 16 {
		return ID{}, fmt.Errorf("gid: id must be 16 bytes, got %d", len(b))
	}
	return ID{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

// ParseID decodes a hex string produced by String.
func ParseID(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("gid: invalid hex id %q: %w", s, err)
	}
	return FromBytes(b)
}

// String renders id as lowercase hex, Hi then Lo.
func (id ID) String() string {
	b := id.Bytes()
	return hex.EncodeToString(b[:])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == Zero
}
