package kv

import (
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// openBoltDB opens the bbolt file at path. An empty path or the
// sentinel ":memory:" creates a private temporary file that the
// caller is responsible for removing on Close, giving an ephemeral
// workspace without requiring a real in-memory bbolt backend (bbolt
// has none).
func openBoltDB(path string) (db *bolt.DB, realPath string, err error) {
	if path == "" || path == ":memory:" {
		f, err := os.CreateTemp("", "graphstore-*.db")
		if err != nil {
			return nil, "", err
		}
		path = f.Name()
		f.Close()
		os.Remove(path)
	}

	db, err = bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}
