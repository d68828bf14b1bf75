package crdt

import "github.com/cuemby/graphstore/pkg/gid"

// NodeValue is the payload of a node: an optional label. A node
// exists iff its NodeValue is non-nil.
type NodeValue struct {
	Label gid.Label
}

// Equal reports whether v and other describe the same node payload.
func (v *NodeValue) Equal(other *NodeValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.Label == other.Label
}

// AtomValue is the payload of an atom: an optional (src, label,
// value) triple. An atom exists iff its AtomValue is non-nil.
type AtomValue struct {
	Src   gid.ID
	Label gid.Label
	Value []byte
}

// Equal reports whether v and other describe the same atom payload.
func (v *AtomValue) Equal(other *AtomValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Src != other.Src || v.Label != other.Label {
		return false
	}
	if len(v.Value) != len(other.Value) {
		return false
	}
	for i := range v.Value {
		if v.Value[i] != other.Value[i] {
			return false
		}
	}
	return true
}

// EdgeValue is the payload of an edge: an optional (src, label, dst)
// triple. An edge exists iff its EdgeValue is non-nil.
type EdgeValue struct {
	Src   gid.ID
	Label gid.Label
	Dst   gid.ID
}

// Equal reports whether v and other describe the same edge payload.
func (v *EdgeValue) Equal(other *EdgeValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.Src == other.Src && v.Label == other.Label && v.Dst == other.Dst
}

// NodeMod records a node's payload immediately before and after a
// run of modifications, as returned by NodeSet.Mods.
type NodeMod struct {
	ID   gid.ID
	Prev *NodeValue
	Curr *NodeValue
}

// AtomMod is NodeMod's analogue for atoms.
type AtomMod struct {
	ID   gid.ID
	Prev *AtomValue
	Curr *AtomValue
}

// EdgeMod is NodeMod's analogue for edges.
type EdgeMod struct {
	ID   gid.ID
	Prev *EdgeValue
	Curr *EdgeValue
}

// NodeAction is one persisted LWW write, as produced by Actions and
// consumed during sync replay.
type NodeAction struct {
	ID     gid.ID
	Bucket uint64
	Clock  uint64
	Value  *NodeValue
}

type AtomAction struct {
	ID     gid.ID
	Bucket uint64
	Clock  uint64
	Value  *AtomValue
}

type EdgeAction struct {
	ID     gid.ID
	Bucket uint64
	Clock  uint64
	Value  *EdgeValue
}
