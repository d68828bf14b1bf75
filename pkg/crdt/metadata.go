package crdt

import (
	"sync"
	"time"

	"github.com/cuemby/graphstore/internal/kv"
)

// Metadata tracks, for one structure (nodes, atoms or edges), the
// highest observed clock per bucket.
type Metadata struct {
	store *kv.Store
	table string

	mu     sync.Mutex
	clocks map[uint64]uint64
}

const metadataIndex = "buckets"

// OpenMetadata loads (or initializes) the bucket->clock map persisted
// under table in store.
func OpenMetadata(store *kv.Store, table string) (*Metadata, error) {
	if err := store.EnsureTable(table, metadataIndex); err != nil {
		return nil, err
	}

	m := &Metadata{store: store, table: table, clocks: make(map[uint64]uint64)}

	err := store.ScanPrefix(table, metadataIndex, nil, func(bucketKey, clockVal []byte) error {
		m.clocks[decodeU64(bucketKey)] = decodeU64(clockVal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Buckets returns a snapshot of the current bucket->clock map.
func (m *Metadata) Buckets() map[uint64]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uint64]uint64, len(m.clocks))
	for b, c := range m.clocks {
		out[b] = c
	}
	return out
}

// Clock returns the highest observed clock for bucket, or 0 if none.
func (m *Metadata) Clock(bucket uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clocks[bucket]
}

// Next returns a clock value strictly greater than every currently
// observed clock across all buckets, additionally raised to at least
// the current wall-clock nanosecond count. This wall-clock raise
// applies uniformly to nodes, atoms and edges alike (see DESIGN.md);
// the only contract Next must satisfy is next() > max_over_buckets(current).
func (m *Metadata) Next() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var max uint64
	for _, c := range m.clocks {
		if c > max {
			max = c
		}
	}
	next := max + 1
	if now := uint64(time.Now().UnixNano()); now > next {
		next = now
	}
	return next
}

// Update records clock as the highest observed clock for bucket, if
// clock is strictly greater than the currently stored value. Returns
// true iff the update took effect.
func (m *Metadata) Update(bucket, clock uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clock <= m.clocks[bucket] {
		return false, nil
	}
	if err := m.store.IndexPut(m.table, metadataIndex, encodeU64(bucket), encodeU64(clock)); err != nil {
		return false, err
	}
	m.clocks[bucket] = clock
	return true, nil
}
