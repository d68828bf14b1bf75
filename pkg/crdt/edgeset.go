package crdt

import (
	"sort"
	"sync"

	"github.com/cuemby/graphstore/internal/kv"
	"github.com/cuemby/graphstore/pkg/gid"
)

const (
	edgeTable         = "edges.data"
	edgeBySrcLabel    = "bySrcLabel"
	edgeByDstLabel    = "byDstLabel"
	edgeByBucketClock = "byBucketClock"
)

type pendingEdge struct {
	prev   *EdgeValue
	curr   *EdgeValue
	bucket uint64
	clock  uint64
}

// EdgeSet is the LWW element set of edges.
type EdgeSet struct {
	store *kv.Store
	meta  *Metadata

	mu      sync.Mutex
	pending map[gid.ID]pendingEdge
}

// OpenEdgeSet opens the edge set backed by store, using meta for
// per-bucket clock tracking.
func OpenEdgeSet(store *kv.Store, meta *Metadata) (*EdgeSet, error) {
	if err := store.EnsureTable(edgeTable, edgeBySrcLabel, edgeByDstLabel, edgeByBucketClock); err != nil {
		return nil, err
	}
	return &EdgeSet{store: store, meta: meta, pending: make(map[gid.ID]pendingEdge)}, nil
}

// Get returns the current payload of id, or nil if it does not exist.
func (s *EdgeSet) Get(id gid.ID) (*EdgeValue, error) {
	_, _, v, _, err := s.current(id)
	return v, err
}

func (s *EdgeSet) current(id gid.ID) (bucket, clock uint64, value *EdgeValue, known bool, err error) {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return p.bucket, p.clock, p.curr, true, nil
	}
	s.mu.Unlock()

	row, err := s.store.Get(edgeTable, id.Slice())
	if err != nil || row == nil {
		return 0, 0, nil, false, err
	}
	bucket, clock, value, err = decodeEdgeRow(row)
	return bucket, clock, value, true, err
}

// EdgeRef is an (id, label, dst) or (id, src, label) projection over
// an edge, returned by the secondary lookups.
type EdgeRef struct {
	ID    gid.ID
	Src   gid.ID
	Label gid.Label
	Dst   gid.ID
}

// BySrc returns (id, label, dst) for every edge with src == src.
func (s *EdgeSet) BySrc(src gid.ID) ([]EdgeRef, error) {
	return s.scanBySrcLabelPrefix(src.Slice())
}

// BySrcLabel returns (id, dst) for every edge with src == src and
// label == label.
func (s *EdgeSet) BySrcLabel(src gid.ID, label gid.Label) ([]EdgeRef, error) {
	prefix := append(append([]byte{}, src.Slice()...), encodeU64(label)...)
	return s.scanBySrcLabelPrefix(prefix)
}

func (s *EdgeSet) scanBySrcLabelPrefix(prefix []byte) ([]EdgeRef, error) {
	touched := s.touchedIDs()
	byID := make(map[gid.ID]EdgeRef)

	for id, p := range s.pendingSnapshot() {
		if p.curr == nil {
			continue
		}
		key := srcLabelIDKey(p.curr.Src, p.curr.Label, id)
		if hasPrefixBytes(key, prefix) {
			byID[id] = EdgeRef{ID: id, Src: p.curr.Src, Label: p.curr.Label, Dst: p.curr.Dst}
		}
	}

	err := s.store.ScanPrefix(edgeTable, edgeBySrcLabel, prefix, func(_, idBytes []byte) error {
		id, err := gid.FromBytes(idBytes)
		if err != nil {
			return err
		}
		if _, skip := touched[id]; skip {
			return nil
		}
		v, err := s.Get(id)
		if err != nil || v == nil {
			return err
		}
		byID[id] = EdgeRef{ID: id, Src: v.Src, Label: v.Label, Dst: v.Dst}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedEdgeRefs(byID), nil
}

// ByDst returns (id, src, label) for every edge with dst == dst.
func (s *EdgeSet) ByDst(dst gid.ID) ([]EdgeRef, error) {
	return s.scanByDstLabelPrefix(dst.Slice())
}

// ByDstLabel returns (id, src) for every edge with dst == dst and
// label == label.
func (s *EdgeSet) ByDstLabel(dst gid.ID, label gid.Label) ([]EdgeRef, error) {
	prefix := append(append([]byte{}, dst.Slice()...), encodeU64(label)...)
	return s.scanByDstLabelPrefix(prefix)
}

func (s *EdgeSet) scanByDstLabelPrefix(prefix []byte) ([]EdgeRef, error) {
	touched := s.touchedIDs()
	byID := make(map[gid.ID]EdgeRef)

	for id, p := range s.pendingSnapshot() {
		if p.curr == nil {
			continue
		}
		key := srcLabelIDKey(p.curr.Dst, p.curr.Label, id)
		if hasPrefixBytes(key, prefix) {
			byID[id] = EdgeRef{ID: id, Src: p.curr.Src, Label: p.curr.Label, Dst: p.curr.Dst}
		}
	}

	err := s.store.ScanPrefix(edgeTable, edgeByDstLabel, prefix, func(_, idBytes []byte) error {
		id, err := gid.FromBytes(idBytes)
		if err != nil {
			return err
		}
		if _, skip := touched[id]; skip {
			return nil
		}
		v, err := s.Get(id)
		if err != nil || v == nil {
			return err
		}
		byID[id] = EdgeRef{ID: id, Src: v.Src, Label: v.Label, Dst: v.Dst}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedEdgeRefs(byID), nil
}

// Set performs the LWW write: advance the bucket clock, then replace
// the current value only if the candidate is strictly greater.
func (s *EdgeSet) Set(id gid.ID, bucket, clock uint64, value *EdgeValue) (bool, error) {
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
// strictly greater than ceiling[bucket], in ascending clock order.
func (s *EdgeSet) Actions(ceiling map[uint64]uint64) ([]EdgeAction, error) {
	var out []EdgeAction
	for _, bucket := range sortedBuckets(s.meta.Buckets()) {
		floor := ceiling[bucket]
		err := s.store.ScanPrefix(edgeTable, edgeByBucketClock, encodeU64(bucket), func(key, idBytes []byte) error {
			clock := decodeU64(key[8:16])
			if clock <= floor {
				return nil
			}
			row, err := s.store.Get(edgeTable, idBytes)
			if err != nil || row == nil {
				return err
			}
			b, c, v, err := decodeEdgeRow(row)
			if err != nil {
				return err
			}
			id, err := gid.FromBytes(idBytes)
			if err != nil {
				return err
			}
			out = append(out, EdgeAction{ID: id, Bucket: b, Clock: c, Value: v})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Mods returns every id touched since the last Save.
func (s *EdgeSet) Mods() []EdgeMod {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EdgeMod, 0, len(s.pending))
	for id, p := range s.pending {
		out = append(out, EdgeMod{ID: id, Prev: p.prev, Curr: p.curr})
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

// Save flushes the pending buffer to the store and clears it.
func (s *EdgeSet) Save() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[gid.ID]pendingEdge)
	s.mu.Unlock()

	for id, p := range pending {
		oldRow, err := s.store.Get(edgeTable, id.Slice())
		if err != nil {
			return err
		}
		if oldRow != nil {
			oldBucket, oldClock, oldVal, err := decodeEdgeRow(oldRow)
			if err != nil {
				return err
			}
			if err := s.store.IndexDelete(edgeTable, edgeByBucketClock, compositeKey(oldBucket, oldClock, id)); err != nil {
				return err
			}
			if oldVal != nil {
				if err := s.store.IndexDelete(edgeTable, edgeBySrcLabel, srcLabelIDKey(oldVal.Src, oldVal.Label, id)); err != nil {
					return err
				}
				if err := s.store.IndexDelete(edgeTable, edgeByDstLabel, srcLabelIDKey(oldVal.Dst, oldVal.Label, id)); err != nil {
					return err
				}
			}
		}

		newRow := encodeEdgeRow(p.bucket, p.clock, p.curr)
		if err := s.store.Put(edgeTable, id.Slice(), newRow); err != nil {
			return err
		}
		if err := s.store.IndexPut(edgeTable, edgeByBucketClock, compositeKey(p.bucket, p.clock, id), id.Slice()); err != nil {
			return err
		}
		if p.curr != nil {
			if err := s.store.IndexPut(edgeTable, edgeBySrcLabel, srcLabelIDKey(p.curr.Src, p.curr.Label, id), id.Slice()); err != nil {
				return err
			}
			if err := s.store.IndexPut(edgeTable, edgeByDstLabel, srcLabelIDKey(p.curr.Dst, p.curr.Label, id), id.Slice()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns the number of live (non-tombstoned) edges as of the
// last Save. Pending, not-yet-saved writes are not reflected.
func (s *EdgeSet) Count() (int, error) {
	n := 0
	err := s.store.ForEach(edgeTable, func(_, row []byte) error {
		_, _, v, err := decodeEdgeRow(row)
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

func (s *EdgeSet) touchedIDs() map[gid.ID]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]struct{}, len(s.pending))
	for id := range s.pending {
		out[id] = struct{}{}
	}
	return out
}

func (s *EdgeSet) pendingSnapshot() map[gid.ID]pendingEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]pendingEdge, len(s.pending))
	for id, p := range s.pending {
		out[id] = p
	}
	return out
}

func sortedEdgeRefs(m map[gid.ID]EdgeRef) []EdgeRef {
	out := make([]EdgeRef, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}
