// Package wire implements the frozen byte-string codec used by the
// three-step sync protocol (version / actions / join). The format is
// a fixed-endianness (big-endian), integer-width-explicit encoding of
// ordered maps and sequences, deliberately independent of any
// particular backing store or in-memory representation so it can
// remain byte-compatible across implementations and over time.
//
// Layout, outer to inner:
//
//	outer:    count(4) [ namelen(2) name(namelen) bodylen(4) body(bodylen) ]*
//	version:  count(4) [ bucket(8) clock(8) ]*                  -- ascending bucket
//	actions:  count(4) [ id(16) bucket(8) clock(8) present(1) payload? ]*  -- ascending id
//
// Only stdlib encoding/binary is used here: the layout is a frozen,
// hand-specified fixed-width format, not a self-describing schema, so
// a generic serialization library (protobuf, msgpack) would not
// preserve the exact byte shape the protocol promises to freeze.
package wire
