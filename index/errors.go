package index

import "errors"

// ErrTooManyIndexedFields is returned by ApplyCreateIndex when applying
// the requested index would push a catalog's indexedFields past
// MaxIndexedFields. It is never retried by Cache.CreateIndex's CAS loop.
var ErrTooManyIndexedFields = errors.New("index: indexed field count would exceed the cap of 10")

// ErrConflict is returned by Cache.CreateIndex after the CAS retry budget
// is exhausted.
var ErrConflict = errors.New("index: catalog compare-and-swap conflict")
