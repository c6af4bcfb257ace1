// Package store defines the abstract object-store contract the engine's
// components build on. It never names a concrete SDK: store/memstore is
// the in-memory reference implementation, and store/azureblobstore is one
// concrete driver among others a deployment might plug in.
package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the named object does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrPreconditionFailed is returned by Put when an IfMatch or IfNoneMatch
// precondition does not hold.
var ErrPreconditionFailed = errors.New("store: precondition failed")

// Done is returned by Iterator.Next when there are no more results, the
// same role io.EOF plays in the teacher's DocumentIterator.
var Done = io.EOF

// Attrs describes the result of a successful Put.
type Attrs struct {
	// ETag is the opaque version token the store assigned this write.
	// Pass it back as PutOptions.IfMatch on the next write to the same
	// name for optimistic-concurrency control.
	ETag string
}

// GetResult is the result of a successful Get.
type GetResult struct {
	Bytes []byte
	ETag  string
}

// PutOptions controls the conditional-write behavior of Put and carries
// the tag map to attach to the object.
type PutOptions struct {
	// Tags are the blob tags to attach, server-side indexed and
	// searchable via FindByTags. Tag keys and values must already be in
	// the store's restricted alphabet; callers are expected to have run
	// values through a codec like tagcodec before calling Put.
	Tags map[string]string

	// IfMatch, if non-empty, makes the write conditional on the object's
	// current ETag equaling this value.
	IfMatch string

	// IfNoneMatch, if set to "*", makes the write conditional on the
	// object not already existing.
	IfNoneMatch string
}

// Iterator yields object names one at a time.
type Iterator interface {
	// Next returns the next object name, or Done when exhausted.
	Next(ctx context.Context) (string, error)

	// Stop releases any resources held by the iterator before it is
	// exhausted. Safe to call multiple times.
	Stop()
}

// Store is the abstract substrate the engine's components (C3-C5) depend
// on. A container corresponds to a collection; an object name corresponds
// to a document id (or the reserved catalog name).
type Store interface {
	// EnsureContainer idempotently creates the named container.
	EnsureContainer(ctx context.Context, container string) error

	// Put writes an object, honoring the preconditions and tags in opts.
	// It returns ErrPreconditionFailed if IfMatch/IfNoneMatch did not
	// hold.
	Put(ctx context.Context, container, name string, data []byte, opts PutOptions) (Attrs, error)

	// Get reads an object, returning ErrNotFound if it does not exist.
	Get(ctx context.Context, container, name string) (GetResult, error)

	// Exists reports whether an object is present.
	Exists(ctx context.Context, container, name string) (bool, error)

	// Delete removes an object. It is a no-op if the object is absent.
	Delete(ctx context.Context, container, name string) error

	// List returns an iterator over object names in the container, in
	// the store's natural order. Implementations should skip nothing;
	// callers filter out system-reserved names (those starting with
	// "__") themselves.
	List(ctx context.Context, container string) (Iterator, error)

	// FindByTags returns an iterator over object names in container
	// whose tags satisfy expr, a conjunctive filter expression in the
	// grammar documented by the planner (see plan.BuildFilterExpr).
	FindByTags(ctx context.Context, container, expr string) (Iterator, error)

	// DropContainer removes a container and everything in it.
	DropContainer(ctx context.Context, container string) error
}
