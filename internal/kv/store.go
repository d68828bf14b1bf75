package kv

import (
	"os"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/graphstore/pkg/metrics"
)

// Store is an ordered key-value backing store with named tables and
// secondary indices, backed by bbolt. A Store is always "in a
// transaction": Open begins a writable transaction, Commit ends it
// and starts a new one, Close ends it and releases the file.
//
// Store is safe for use by a single caller at a time; callers that
// share a Store across goroutines must serialize access (the
// workspace above this package does so with its own mutex).
type Store struct {
	mu        sync.Mutex
	db        *bolt.DB
	tx        *bolt.Tx
	path      string
	ephemeral bool
}

// Open opens (creating if absent) the bbolt file at path and begins a
// writable transaction. path may be ":memory:" or empty, in which
// case an ephemeral, non-persistent store is used.
func Open(path string) (*Store, error) {
	ephemeral := path == "" || path == ":memory:"

	db, realPath, err := openBoltDB(path)
	if err != nil {
		return nil, wrap(err)
	}

	tx, err := db.Begin(true)
	if err != nil {
		db.Close()
		if ephemeral {
			os.Remove(realPath)
		}
		return nil, wrap(err)
	}

	return &Store{db: db, tx: tx, path: realPath, ephemeral: ephemeral}, nil
}

// EnsureTable creates the named table (a top-level bucket) and its
// named secondary indices (nested buckets) if they do not already
// exist. Safe to call every time a component using the table is
// constructed.
func (s *Store) EnsureTable(table string, indices ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}

	b, err := s.tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return wrap(err)
	}
	for _, idx := range indices {
		if _, err := b.CreateBucketIfNotExists([]byte(idx)); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Get returns the value stored under key in table, or nil if absent.
func (s *Store) Get(table string, key []byte) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "get")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil, ErrNotOpen
	}

	b := s.tx.Bucket([]byte(table))
	if b == nil {
		return nil, nil
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put replaces (insert-or-overwrite) the value stored under key in
// table.
func (s *Store) Put(table string, key, value []byte) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "put")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}

	b, err := s.tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return wrap(err)
	}
	if err := b.Put(key, value); err != nil {
		return wrap(err)
	}
	return nil
}

// IndexPut records indexKey -> id in the named secondary index of
// table.
func (s *Store) IndexPut(table, index string, indexKey, id []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}

	tb, err := s.tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return wrap(err)
	}
	ib, err := tb.CreateBucketIfNotExists([]byte(index))
	if err != nil {
		return wrap(err)
	}
	if err := ib.Put(indexKey, id); err != nil {
		return wrap(err)
	}
	return nil
}

// IndexDelete removes indexKey from the named secondary index of
// table, if present.
func (s *Store) IndexDelete(table, index string, indexKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}

	tb := s.tx.Bucket([]byte(table))
	if tb == nil {
		return nil
	}
	ib := tb.Bucket([]byte(index))
	if ib == nil {
		return nil
	}
	if err := ib.Delete(indexKey); err != nil {
		return wrap(err)
	}
	return nil
}

// ScanPrefix calls fn for every indexKey -> id pair in the named
// secondary index of table whose indexKey starts with prefix, in
// ascending byte order. The cursor walk happens under s.mu, but fn is
// invoked after the lock is released, so fn is free to call back into
// Get/Put/ScanPrefix/etc. on the same Store without deadlocking.
func (s *Store) ScanPrefix(table, index string, prefix []byte, fn func(indexKey, id []byte) error) error {
	pairs, err := s.scanPrefixSnapshot(table, index, prefix)
	if err != nil {
		return err
	}

	for _, p := range pairs {
		if err := fn(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

type kvPair struct {
	key   []byte
	value []byte
}

func (s *Store) scanPrefixSnapshot(table, index string, prefix []byte) ([]kvPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil, ErrNotOpen
	}

	tb := s.tx.Bucket([]byte(table))
	if tb == nil {
		return nil, nil
	}
	ib := tb.Bucket([]byte(index))
	if ib == nil {
		return nil, nil
	}

	var pairs []kvPair
	c := ib.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		key := make([]byte, len(k))
		copy(key, k)
		value := make([]byte, len(v))
		copy(value, v)
		pairs = append(pairs, kvPair{key: key, value: value})
	}
	return pairs, nil
}

// ForEach calls fn for every direct key/value entry in table (secondary
// index sub-buckets are skipped), in ascending key order. A no-op if
// table does not exist.
func (s *Store) ForEach(table string, fn func(key, value []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}

	b := s.tx.Bucket([]byte(table))
	if b == nil {
		return nil
	}

	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Commit ends the current transaction and atomically begins a new
// one.
func (s *Store) Commit() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "commit")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotOpen
	}
	if err := s.tx.Commit(); err != nil {
		return wrap(err)
	}
	tx, err := s.db.Begin(true)
	if err != nil {
		s.tx = nil
		return wrap(err)
	}
	s.tx = tx
	return nil
}

// Close ends the current transaction and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if cerr := s.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if s.ephemeral {
		os.Remove(s.path)
	}
	return wrap(err)
}

func hasPrefix(b, prefix []byte) bool {
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
