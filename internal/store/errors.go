package store

import "errors"

// ErrCorruptSnapshot indicates the snapshot file exists but cannot be
// decoded. The store refuses to silently discard user data; the caller
// decides whether to move the file aside.
var ErrCorruptSnapshot = errors.New("corrupt local snapshot")
