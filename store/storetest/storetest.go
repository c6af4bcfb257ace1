// Package storetest provides a conformance suite that any store.Store
// implementation can run against, the same role gocloud.dev's
// docstore/drivertest package plays for docstore drivers: one battery of
// behavioral tests, run from a driver's own _test.go with a constructor
// for that backend. store/memstore runs it; store/azureblobstore has no
// test that does.
package storetest

import (
	"context"
	"testing"

	"github.com/goshops-com/StormiDB/store"
)

// RunConformanceTests exercises the store.Store contract against a fresh
// instance from newStore, called once per subtest so implementations
// that don't support cross-instance persistence still pass.
func RunConformanceTests(t *testing.T, newStore func() store.Store) {
	t.Run("PutGetRoundTrip", func(t *testing.T) { testPutGetRoundTrip(t, newStore()) })
	t.Run("GetMissingIsNotFound", func(t *testing.T) { testGetMissingIsNotFound(t, newStore()) })
	t.Run("IfNoneMatchRejectsExisting", func(t *testing.T) { testIfNoneMatchRejectsExisting(t, newStore()) })
	t.Run("IfMatchRejectsStale", func(t *testing.T) { testIfMatchRejectsStale(t, newStore()) })
	t.Run("DeleteIsIdempotent", func(t *testing.T) { testDeleteIsIdempotent(t, newStore()) })
	t.Run("ListReturnsAllNames", func(t *testing.T) { testListReturnsAllNames(t, newStore()) })
	t.Run("FindByTagsEquality", func(t *testing.T) { testFindByTagsEquality(t, newStore()) })
	t.Run("DropContainerRemovesEverything", func(t *testing.T) { testDropContainerRemovesEverything(t, newStore()) })
}

func testPutGetRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "c", "doc", []byte("payload"), store.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "c", "doc")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Bytes) != "payload" {
		t.Errorf("got %q, want payload", got.Bytes)
	}
}

func testGetMissingIsNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, "c", "nope")
	if err != store.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func testIfNoneMatchRejectsExisting(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "c", "doc", []byte("v1"), store.PutOptions{IfNoneMatch: "*"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "c", "doc", []byte("v2"), store.PutOptions{IfNoneMatch: "*"}); err != store.ErrPreconditionFailed {
		t.Errorf("got %v, want ErrPreconditionFailed", err)
	}
}

func testIfMatchRejectsStale(t *testing.T, s store.Store) {
	ctx := context.Background()
	attrs, err := s.Put(ctx, "c", "doc", []byte("v1"), store.PutOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "c", "doc", []byte("v2"), store.PutOptions{IfMatch: "bogus-" + attrs.ETag}); err != store.ErrPreconditionFailed {
		t.Errorf("got %v, want ErrPreconditionFailed", err)
	}
	if _, err := s.Put(ctx, "c", "doc", []byte("v2"), store.PutOptions{IfMatch: attrs.ETag}); err != nil {
		t.Errorf("got %v, want success with the correct etag", err)
	}
}

func testDeleteIsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Delete(ctx, "c", "nope"); err != nil {
		t.Errorf("deleting a missing object should be a no-op, got %v", err)
	}
}

func testListReturnsAllNames(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.Put(ctx, "list-test", name, []byte("x"), store.PutOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	it, err := s.List(ctx, "list-test")
	if err != nil {
		t.Fatal(err)
	}
	defer it.Stop()
	count := 0
	for {
		_, err := it.Next(ctx)
		if err == store.Done {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("got %d names, want 3", count)
	}
}

func testFindByTagsEquality(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "tag-test", "a", []byte("x"), store.PutOptions{Tags: map[string]string{"city": "NYC"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "tag-test", "b", []byte("x"), store.PutOptions{Tags: map[string]string{"city": "LA"}}); err != nil {
		t.Fatal(err)
	}
	it, err := s.FindByTags(ctx, "tag-test", `"city" = 'NYC'`)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Stop()
	name, err := it.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if name != "a" {
		t.Errorf("got %q, want a", name)
	}
	if _, err := it.Next(ctx); err != store.Done {
		t.Errorf("expected exactly one match, got another: err=%v", err)
	}
}

func testDropContainerRemovesEverything(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Put(ctx, "drop-test", "a", []byte("x"), store.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := s.DropContainer(ctx, "drop-test"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "drop-test", "a"); err != store.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound after DropContainer", err)
	}
}
