package memstore

import (
	"context"
	"testing"

	"github.com/goshops-com/StormiDB/store"
)

func drain(t *testing.T, it store.Iterator) []string {
	t.Helper()
	var names []string
	for {
		n, err := it.Next(context.Background())
		if err == store.Done {
			return names
		}
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, n)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Put(ctx, "c", "doc1", []byte("hello"), store.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "c", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Bytes) != "hello" {
		t.Errorf("got %q, want hello", got.Bytes)
	}
}

func TestPutIfNoneMatchRejectsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Put(ctx, "c", "doc1", []byte("v1"), store.PutOptions{IfNoneMatch: "*"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.Put(ctx, "c", "doc1", []byte("v2"), store.PutOptions{IfNoneMatch: "*"})
	if err != store.ErrPreconditionFailed {
		t.Errorf("got %v, want ErrPreconditionFailed", err)
	}
}

func TestPutIfMatchCAS(t *testing.T) {
	s := New()
	ctx := context.Background()
	attrs, err := s.Put(ctx, "c", "doc1", []byte("v1"), store.PutOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "c", "doc1", []byte("v2"), store.PutOptions{IfMatch: "stale"}); err != store.ErrPreconditionFailed {
		t.Errorf("got %v, want ErrPreconditionFailed", err)
	}
	if _, err := s.Put(ctx, "c", "doc1", []byte("v2"), store.PutOptions{IfMatch: attrs.ETag}); err != nil {
		t.Errorf("got %v, want success with the correct etag", err)
	}
}

func TestFindByTagsEquality(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put(ctx, "c", "a", []byte("{}"), store.PutOptions{Tags: map[string]string{"city": "NYC"}})
	s.Put(ctx, "c", "b", []byte("{}"), store.PutOptions{Tags: map[string]string{"city": "LA"}})
	it, err := s.FindByTags(ctx, "c", `"city" = 'NYC'`)
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, it)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("got %v, want [a]", got)
	}
}

func TestFindByTagsBetween(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put(ctx, "c", "a", []byte("{}"), store.PutOptions{Tags: map[string]string{"n": "005"}})
	s.Put(ctx, "c", "b", []byte("{}"), store.PutOptions{Tags: map[string]string{"n": "015"}})
	s.Put(ctx, "c", "c", []byte("{}"), store.PutOptions{Tags: map[string]string{"n": "025"}})
	it, err := s.FindByTags(ctx, "c", `"n" BETWEEN '010' AND '020'`)
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, it)
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("got %v, want [b]", got)
	}
}

func TestFindByTagsConjunction(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put(ctx, "c", "a", []byte("{}"), store.PutOptions{Tags: map[string]string{"age": "030", "city": "NYC"}})
	s.Put(ctx, "c", "b", []byte("{}"), store.PutOptions{Tags: map[string]string{"age": "030", "city": "LA"}})
	it, err := s.FindByTags(ctx, "c", `"age" = '030' AND "city" = 'NYC'`)
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, it)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("got %v, want [a]", got)
	}
}

func TestListSkipsNothingCallerFiltersSystemNames(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put(ctx, "c", "__collection_indexes", []byte("{}"), store.PutOptions{})
	s.Put(ctx, "c", "doc1", []byte("{}"), store.PutOptions{})
	it, err := s.List(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, it)
	if len(got) != 2 {
		t.Errorf("got %v, want both names (filtering is the caller's job)", got)
	}
}
