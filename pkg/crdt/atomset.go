package crdt

import (
	"sort"
	"sync"

	"github.com/cuemby/graphstore/internal/kv"
	"github.com/cuemby/graphstore/pkg/gid"
)

const (
	atomTable         = "atoms.data"
	atomBySrcLabel    = "bySrcLabel"
	atomByLabelValue  = "byLabelValue"
	atomByBucketClock = "byBucketClock"
)

type pendingAtom struct {
	prev   *AtomValue
	curr   *AtomValue
	bucket uint64
	clock  uint64
}

// AtomSet is the LWW element set of atoms.
type AtomSet struct {
	store *kv.Store
	meta  *Metadata

	mu      sync.Mutex
	pending map[gid.ID]pendingAtom
}

// OpenAtomSet opens the atom set backed by store, using meta for
// per-bucket clock tracking.
func OpenAtomSet(store *kv.Store, meta *Metadata) (*AtomSet, error) {
	if err := store.EnsureTable(atomTable, atomBySrcLabel, atomByLabelValue, atomByBucketClock); err != nil {
		return nil, err
	}
	return &AtomSet{store: store, meta: meta, pending: make(map[gid.ID]pendingAtom)}, nil
}

// Get returns the current payload of id, or nil if it does not exist.
func (s *AtomSet) Get(id gid.ID) (*AtomValue, error) {
	_, _, v, _, err := s.current(id)
	return v, err
}

func (s *AtomSet) current(id gid.ID) (bucket, clock uint64, value *AtomValue, known bool, err error) {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return p.bucket, p.clock, p.curr, true, nil
	}
	s.mu.Unlock()

	row, err := s.store.Get(atomTable, id.Slice())
	if err != nil || row == nil {
		return 0, 0, nil, false, err
	}
	bucket, clock, value, err = decodeAtomRow(row)
	return bucket, clock, value, true, err
}

// AtomRef is an (id, label, value) or (id, src, value) or (id, src,
// label) projection over an atom, returned by the secondary lookups.
type AtomRef struct {
	ID    gid.ID
	Src   gid.ID
	Label gid.Label
	Value []byte
}

// BySrc returns (id, label, value) for every atom with src == src.
func (s *AtomSet) BySrc(src gid.ID) ([]AtomRef, error) {
	return s.scanBySrcLabelPrefix(src.Slice())
}

// BySrcLabel returns (id, value) for every atom with src == src and
// label == label.
func (s *AtomSet) BySrcLabel(src gid.ID, label gid.Label) ([]AtomRef, error) {
	prefix := append(append([]byte{}, src.Slice()...), encodeU64(label)...)
	return s.scanBySrcLabelPrefix(prefix)
}

func (s *AtomSet) scanBySrcLabelPrefix(prefix []byte) ([]AtomRef, error) {
	touched := s.touchedIDs()
	byID := make(map[gid.ID]AtomRef)

	for id, p := range s.pendingSnapshot() {
		if p.curr == nil {
			continue
		}
		key := srcLabelIDKey(p.curr.Src, p.curr.Label, id)
		if hasPrefixBytes(key, prefix) {
			byID[id] = AtomRef{ID: id, Src: p.curr.Src, Label: p.curr.Label, Value: p.curr.Value}
		}
	}

	err := s.store.ScanPrefix(atomTable, atomBySrcLabel, prefix, func(_, idBytes []byte) error {
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
		byID[id] = AtomRef{ID: id, Src: v.Src, Label: v.Label, Value: v.Value}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedAtomRefs(byID), nil
}

// ByLabel returns (id, src, value) for every atom with label == label.
func (s *AtomSet) ByLabel(label gid.Label) ([]AtomRef, error) {
	return s.scanByLabelValuePrefix(encodeU64(label))
}

// ByLabelValue returns (id, src) for every atom with label == label
// and value == value.
func (s *AtomSet) ByLabelValue(label gid.Label, value []byte) ([]AtomRef, error) {
	length := make([]byte, 4)
	be32(length, uint32(len(value)))
	prefix := append(append(encodeU64(label), length...), value...)
	return s.scanByLabelValuePrefix(prefix)
}

func (s *AtomSet) scanByLabelValuePrefix(prefix []byte) ([]AtomRef, error) {
	touched := s.touchedIDs()
	byID := make(map[gid.ID]AtomRef)

	for id, p := range s.pendingSnapshot() {
		if p.curr == nil {
			continue
		}
		key := labelValueIDKey(p.curr.Label, p.curr.Value, id)
		if hasPrefixBytes(key, prefix) {
			byID[id] = AtomRef{ID: id, Src: p.curr.Src, Label: p.curr.Label, Value: p.curr.Value}
		}
	}

	err := s.store.ScanPrefix(atomTable, atomByLabelValue, prefix, func(_, idBytes []byte) error {
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
		byID[id] = AtomRef{ID: id, Src: v.Src, Label: v.Label, Value: v.Value}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedAtomRefs(byID), nil
}

// Set performs the LWW write: advance the bucket clock, then replace
// the current value only if the candidate is strictly greater.
func (s *AtomSet) Set(id gid.ID, bucket, clock uint64, value *AtomValue) (bool, error) {
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
func (s *AtomSet) Actions(ceiling map[uint64]uint64) ([]AtomAction, error) {
	var out []AtomAction
	for _, bucket := range sortedBuckets(s.meta.Buckets()) {
		floor := ceiling[bucket]
		err := s.store.ScanPrefix(atomTable, atomByBucketClock, encodeU64(bucket), func(key, idBytes []byte) error {
			clock := decodeU64(key[8:16])
			if clock <= floor {
				return nil
			}
			row, err := s.store.Get(atomTable, idBytes)
			if err != nil || row == nil {
				return err
			}
			b, c, v, err := decodeAtomRow(row)
			if err != nil {
				return err
			}
			id, err := gid.FromBytes(idBytes)
			if err != nil {
				return err
			}
			out = append(out, AtomAction{ID: id, Bucket: b, Clock: c, Value: v})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Mods returns every id touched since the last Save.
func (s *AtomSet) Mods() []AtomMod {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AtomMod, 0, len(s.pending))
	for id, p := range s.pending {
		out = append(out, AtomMod{ID: id, Prev: p.prev, Curr: p.curr})
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

// Save flushes the pending buffer to the store and clears it.
func (s *AtomSet) Save() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[gid.ID]pendingAtom)
	s.mu.Unlock()

	for id, p := range pending {
		oldRow, err := s.store.Get(atomTable, id.Slice())
		if err != nil {
			return err
		}
		if oldRow != nil {
			oldBucket, oldClock, oldVal, err := decodeAtomRow(oldRow)
			if err != nil {
				return err
			}
			if err := s.store.IndexDelete(atomTable, atomByBucketClock, compositeKey(oldBucket, oldClock, id)); err != nil {
				return err
			}
			if oldVal != nil {
				if err := s.store.IndexDelete(atomTable, atomBySrcLabel, srcLabelIDKey(oldVal.Src, oldVal.Label, id)); err != nil {
					return err
				}
				if err := s.store.IndexDelete(atomTable, atomByLabelValue, labelValueIDKey(oldVal.Label, oldVal.Value, id)); err != nil {
					return err
				}
			}
		}

		newRow := encodeAtomRow(p.bucket, p.clock, p.curr)
		if err := s.store.Put(atomTable, id.Slice(), newRow); err != nil {
			return err
		}
		if err := s.store.IndexPut(atomTable, atomByBucketClock, compositeKey(p.bucket, p.clock, id), id.Slice()); err != nil {
			return err
		}
		if p.curr != nil {
			if err := s.store.IndexPut(atomTable, atomBySrcLabel, srcLabelIDKey(p.curr.Src, p.curr.Label, id), id.Slice()); err != nil {
				return err
			}
			if err := s.store.IndexPut(atomTable, atomByLabelValue, labelValueIDKey(p.curr.Label, p.curr.Value, id), id.Slice()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns the number of live (non-tombstoned) atoms as of the
// last Save. Pending, not-yet-saved writes are not reflected.
func (s *AtomSet) Count() (int, error) {
	n := 0
	err := s.store.ForEach(atomTable, func(_, row []byte) error {
		_, _, v, err := decodeAtomRow(row)
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

func (s *AtomSet) touchedIDs() map[gid.ID]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]struct{}, len(s.pending))
	for id := range s.pending {
		out[id] = struct{}{}
	}
	return out
}

func (s *AtomSet) pendingSnapshot() map[gid.ID]pendingAtom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[gid.ID]pendingAtom, len(s.pending))
	for id, p := range s.pending {
		out[id] = p
	}
	return out
}

func hasPrefixBytes(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func sortedAtomRefs(m map[gid.ID]AtomRef) []AtomRef {
	out := make([]AtomRef, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}
