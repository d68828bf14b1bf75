package workspace

import (
	"errors"

	"github.com/cuemby/graphstore/internal/kv"
)

// ErrUninitialised is returned when a data operation is invoked before
// Open or after Close.
var ErrUninitialised = errors.New("workspace: not open")

// ErrInvalidUTF8 is returned when the path passed to Open is not
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("workspace: path is not valid UTF-8")

// ErrAlreadyOpen is returned by Open when called on a workspace that
// is already open, rather than silently ignoring the second call:
// Open(newPath) never silently switches backing stores out from under
// a caller.
var ErrAlreadyOpen = errors.New("workspace: already open")

// ErrDisconnected is the backing store's unrecoverable-error sentinel
// (kv.ErrDisconnected); store failures returned by the workspace wrap
// it. A workspace that returns ErrDisconnected is in an invalid state
// and must be closed.
var ErrDisconnected = kv.ErrDisconnected
