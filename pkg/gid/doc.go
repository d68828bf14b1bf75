/*
Package gid provides the 128-bit identifiers, 64-bit labels and label
hashing used throughout the graph engine.

Ids are generated with google/uuid and reinterpreted as two big-endian
uint64 halves, two 64-bit integers being the external-interface shape
a graph-engine embedder is expected to marshal ids as rather than a
single 128-bit value.
*/
package gid
