package storage

import "errors"

// ErrNotFound is returned by every blob store when a key has never been
// written.
var ErrNotFound = errors.New("blob not found")
