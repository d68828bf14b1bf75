package crdt

import (
	"sort"
	"sync"

	"github.com/cuemby/graphstore/internal/kv"
	"github.com/cuemby/graphstore/pkg/gid"
)

const (
	nodeTable         = "nodes.data"
	nodeByLabelIndex  = "byLabel"
	nodeByBucketClock = "byBucketClock"
)

type pendingNode struct {
	prev   *NodeValue
	curr   *NodeValue
	bucket uint64
	clock  uint64
}

// NodeSet is the LWW element set of nodes.
type NodeSet struct {
	store *kv.Store
	meta  *Metadata

	mu      sync.Mutex
	pending map[gid.ID]pendingNode
}

// OpenNodeSet opens the node set backed by store, using meta for
// per-bucket clock tracking.
func OpenNodeSet(store *kv.Store, meta *Metadata) (*NodeSet, error) {
	if err := store.EnsureTable(nodeTable, nodeByLabelIndex, nodeByBucketClock); err != nil {
		return nil, err
	}
	return &NodeSet{store: store, meta: meta, pending: make(map[gid.ID]pendingNode)}, nil
}

// Get returns the current payload of id, or nil if it does not exist.
func (s *NodeSet) Get(id gid.ID) (*NodeValue, error) {
	_, _, v, _, err := s.current(id)
	return v, err
}

// current merges the pending buffer over the committed store, so
// reads always see the latest in-memory state.
func (s *NodeSet) current(id gid.ID) (bucket, clock uint64, value *NodeValue, known bool, err error) {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return p.bucket, p.clock, p.curr, true, nil
	}
	s.mu.Unlock()

	row, err := s.store.Get(nodeTable, id.Slice())
	if err != nil || row == nil {
		return 0, 0, nil, false, err
	}
	bucket, clock, value, err = decodeNodeRow(row)
	return bucket, clock, value, true, err
}

// IDsByLabel returns every node id currently labeled label.
func (s *NodeSet) IDsByLabel(label gid.Label) ([]gid.ID, error) {
	touched := s.touchedIDs()
	matches := make(map[gid.ID]struct{})

	for id, p := range s.pendingSnapshot() {
		if p.curr != nil && p.curr.Label == label {
			matches[id] = struct{}{}
		}
	}

	err := s.store.ScanPrefix(nodeTable, nodeByLabelIndex, encodeU64(label), func(_, idBytes []byte) error {
		id, err := gid.FromBytes(idBytes)
		if err != nil {
			return err
		}
		if _, skip := touched[id]; skip {
			return nil
		}
		matches[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedIDs(matches), nil
}

// Set performs the LWW write: it first
// advances the bucket clock via Metadata.Update (rejecting stale
// writes), then compares the candidate (clock,bucket) against the
// currently known value, replacing it only if the candidate is
// strictly greater.
func (s *NodeSet) Set(id gid.ID, bucket, clock uint64, value *NodeValue) (bool, error) {
	ok, err := s.meta.Update(bucket, clock)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	curBucket, curClock, curVal, known, err := s.current(id)
	if err != nil {
		return false, err
	}
	if known {
		if clock == curClock && bucket == curBucket {
			return false, nil
		}
		if !lessClockBucket(curClock, curBucket, clock, bucket) {
			return false, nil
		}
	}

	s.mu.Lock()
	p, touched := s.pending[id]
	if !touched {
		p.prev = curVal
	}
	p.curr = value
	p.bucket = bucket
	p.clock = clock
	s.pending[id] = p
	s.mu.Unlock()

	return true, nil
}

// Actions returns every action recorded for a bucket with clock
// strictly greater than ceiling[bucket] (absent entries treated as
// 0), in ascending clock order per bucket.
func (s *NodeSet) Actions(ceiling map[uint64]uint64) ([]NodeAction, error) {
	var out []NodeAction
	for _, bucket := range sortedBuckets(s.meta.Buckets()) {
		floor := ceiling[bucket]
		err := s.store.ScanPrefix(nodeTable, nodeByBucketClock, encodeU64(bucket), func(key, idBytes []byte) error {
			clock := decodeU64(key[8:16])
			if clock <= floor {
				return nil
			}
			row, err := s.store.Get(nodeTable, idBytes)
			if err != nil || row == nil {
				return err
			}
			b, c, v, err := decodeNodeRow(row)
			if err != nil {
				return err
			}
			id, err := gid.FromBytes(idBytes)
			if err != nil {
				return err
			}
			out = append(out, NodeAction{ID: id, Bucket: b, Clock: c, Value: v})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Mods returns every id touched since the last Save, with its
// pre- and post-payload.
func (s *NodeSet) Mods() []NodeMod {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]NodeMod, 0, len(s.pending))
	for id, p := range s.pending {
		out = append(out, NodeMod{ID: id, Prev: p.prev, Curr: p.curr})
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

// Save flushes the pending buffer to the store and clears it.
func (s *NodeSet) Save() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[gid.ID]pendingNode)
	s.mu.Unlock()

	for id, p := range pending {
		oldRow, err := s.store.Get(nodeTable, id.Slice())
		if err != nil {
			return err
		}
		if oldRow != nil {
			oldBucket, oldClock, oldVal, err := decodeNodeRow(oldRow)
			if err != nil {
				return err
			}
			if err := s.store.IndexDelete(nodeTable, nodeByBucketClock, compositeKey(oldBucket, oldClock, id)); err != nil {
				return err
			}
			if oldVal != nil {
				if err := s.store.IndexDelete(nodeTable, nodeByLabelIndex, labelIDKey(oldVal.Label, id)); err != nil {
					return err
				}
			}
		}

		newRow := encodeNodeRow(p.bucket, p.clock, p.curr)
		if err := s.store.Put(nodeTable, id.Slice(), newRow); err != nil {
			return err
		}
		if err := s.store.IndexPut(nodeTable, nodeByBucketClock, compositeKey(p.bucket, p.clock, id), id.Slice()); err != nil {
			return err
		}
		if p.curr != nil {
			if err := s.store.IndexPut(nodeTable, nodeByLabelIndex, labelIDKey(p.curr.Label, id), id.Slice()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns the number of live (non-tombstoned) nodes as of the
// last Save. Pending, not-yet-saved writes are not reflected.
func (s *NodeSet) Count() (int, error) {
	n := 0
	err := s.store.ForEach(nodeTable, func(_, row []byte) error {
		_, _, v, err := decodeNodeRow(row)
		if err != nil {
			return err
		}
		if v != nil {
			n++
		}
		return nil
	})
	return n, err
}

func (s *NodeSet) touchedIDs() map[gid.ID]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]struct{}, len(s.pending))
	for id := range s.pending {
		out[id] = struct{}{}
	}
	return out
}

func (s *NodeSet) pendingSnapshot() map[gid.ID]pendingNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]pendingNode, len(s.pending))
	for id, p := range s.pending {
		out[id] = p
	}
	return out
}
