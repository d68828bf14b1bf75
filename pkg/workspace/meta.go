package workspace

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cuemby/graphstore/internal/kv"
)

const (
	schemaVersion = 1

	metaTable     = "workspace.meta"
	versionKey    = "version"
	thisBucketKey = "this"
)

// ErrIncompatibleSchema is returned on reopen when the persisted
// schema version does not match the version this build supports.
var ErrIncompatibleSchema = errors.New("workspace: incompatible schema version")

// openWorkspaceMeta initializes (on first open) or loads (on reopen)
// the workspace-level schema version and this-replica bucket id.
func openWorkspaceMeta(store *kv.Store) (bucket uint64, err error) {
	if err := store.EnsureTable(metaTable); err != nil {
		return 0, err
	}

	versionRow, err := store.Get(metaTable, []byte(versionKey))
	if err != nil {
		return 0, err
	}

	if versionRow == nil {
		bucket, err := newRandomBucket()
		if err != nil {
			return 0, err
		}
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, schemaVersion)
		if err := store.Put(metaTable, []byte(versionKey), v); err != nil {
			return 0, err
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, bucket)
		if err := store.Put(metaTable, []byte(thisBucketKey), b); err != nil {
			return 0, err
		}
		return bucket, nil
	}

	if len(versionRow) != 8 || binary.BigEndian.Uint64(versionRow) != schemaVersion {
		return 0, fmt.Errorf("%w: persisted %d, supported %d", ErrIncompatibleSchema, binary.BigEndian.Uint64(versionRow), uint64(schemaVersion))
	}

	bucketRow, err := store.Get(metaTable, []byte(thisBucketKey))
	if err != nil {
		return 0, err
	}
	if len(bucketRow) != 8 {
		return 0, fmt.Errorf("%w: missing this-bucket row", ErrIncompatibleSchema)
	}
	return binary.BigEndian.Uint64(bucketRow), nil
}

func newRandomBucket() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
