/*
Package kv provides the ordered key-value backing store used by the
graph engine in pkg/crdt and pkg/workspace.

The store is implemented on top of go.etcd.io/bbolt, an embedded,
transactional, mmap-backed database. A Store keeps a single writable
transaction open at all times ("always in a transaction", matching the
reference backing store's IMMEDIATE-transaction posture): Commit ends
the current transaction and atomically starts a fresh one, Close ends
the transaction and releases the file.

# Architecture

	┌──────────────────── BACKING STORE ────────────────────────┐
	│                                                             │
	│  ┌─────────────────────────────────────────────┐          │
	│  │                  Store                        │          │
	│  │  - *bolt.DB  (file, mmap)                     │          │
	│  │  - *bolt.Tx  (long-lived writable transaction)│          │
	│  └──────────────────┬──────────────────────────┘          │
	│                     │                                       │
	│  ┌──────────────────▼──────────────────────────┐          │
	│  │                Tables                         │          │
	│  │  Each table is a top-level bbolt bucket.      │          │
	│  │  Each named secondary index is a nested       │          │
	│  │  bucket under the table, holding               │          │
	│  │  indexKey -> primaryID pairs.                  │          │
	│  └──────────────────┬──────────────────────────┘          │
	│                     │                                       │
	│  ┌──────────────────▼──────────────────────────┐          │
	│  │       Fixed-width big-endian encoding         │          │
	│  │  ids, labels, buckets and clocks are encoded  │          │
	│  │  so byte order equals numeric order, making   │          │
	│  │  prefix scans and (bucket,clock) range scans  │          │
	│  │  correct.                                     │          │
	│  └────────────────────────────────────────────┘            │
	└─────────────────────────────────────────────────────────────┘

All errors returned by this package, except ErrNotOpen (returned as
is for operations on a closed store), are wrapped in ErrDisconnected,
the single unrecoverable error kind the core surfaces for backing
store failures; there is no retry here.
*/
package kv
