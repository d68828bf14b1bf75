package kv

import (
	"errors"
	"fmt"
)

// ErrDisconnected is the single unrecoverable error kind the backing
// store surfaces. The core never retries or falls back when it sees
// this error; callers are expected to close the workspace.
var ErrDisconnected = errors.New("kv: backing store disconnected")

// ErrNotOpen is returned when an operation is attempted on a Store
// that has already been closed.
var ErrNotOpen = errors.New("kv: store is not open")

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDisconnected, err)
}
