package index

import (
	"context"
	"testing"
	"time"

	"github.com/goshops-com/StormiDB/store/memstore"
)

func TestApplyCreateIndexCapsAtTen(t *testing.T) {
	c := Empty()
	for i := 0; i < 10; i++ {
		if err := ApplyCreateIndex(c, []string{string(rune('a' + i))}, false); err != nil {
			t.Fatalf("unexpected error at field %d: %v", i, err)
		}
	}
	if err := ApplyCreateIndex(c, []string{"k"}, false); err != ErrTooManyIndexedFields {
		t.Errorf("got %v, want ErrTooManyIndexedFields", err)
	}
}

func TestApplyCreateIndexUniqueImpliesIndexed(t *testing.T) {
	c := Empty()
	if err := ApplyCreateIndex(c, []string{"email"}, true); err != nil {
		t.Fatal(err)
	}
	if !contains(c.IndexedFields, "email") || !contains(c.UniqueFields, "email") {
		t.Errorf("got indexed=%v unique=%v, want both to contain email", c.IndexedFields, c.UniqueFields)
	}
}

func TestApplyCreateIndexIdempotent(t *testing.T) {
	c := Empty()
	if err := ApplyCreateIndex(c, []string{"age", "city"}, false); err != nil {
		t.Fatal(err)
	}
	before := len(c.IndexedFields)
	if err := ApplyCreateIndex(c, []string{"age", "city"}, false); err != nil {
		t.Fatal(err)
	}
	if len(c.IndexedFields) != before {
		t.Errorf("re-applying the same index changed IndexedFields: %v", c.IndexedFields)
	}
}

func TestCompoundIndexIDIsOrderSensitive(t *testing.T) {
	d1 := Definition{Fields: []string{"a", "b"}}
	d2 := Definition{Fields: []string{"b", "a"}}
	if d1.id() == d2.id() {
		t.Errorf("expected [a,b] and [b,a] to have distinct ids, both got %q", d1.id())
	}
}

func TestCacheCreateIndexRetriesOnConflict(t *testing.T) {
	s := memstore.New()
	cache := NewCache()
	ctx := context.Background()

	// Prime the catalog so there is an ETag to race against.
	if err := cache.CreateIndex(ctx, s, "widgets", noSleep, func(c *Catalog) error {
		return ApplyCreateIndex(c, []string{"seed"}, false)
	}); err != nil {
		t.Fatal(err)
	}

	// Simulate a concurrent writer racing ahead by forcing a stale cache
	// entry, then confirm CreateIndex reloads and succeeds.
	stale, _ := cache.Load(ctx, s, "widgets")
	_ = stale
	cache.data["widgets"].ETag = "stale-etag"

	if err := cache.CreateIndex(ctx, s, "widgets", noSleep, func(c *Catalog) error {
		return ApplyCreateIndex(c, []string{"age"}, false)
	}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}

	got, err := cache.Load(ctx, s, "widgets")
	if err != nil {
		t.Fatal(err)
	}
	if !contains(got.IndexedFields, "age") || !contains(got.IndexedFields, "seed") {
		t.Errorf("got indexed fields %v, want both seed and age", got.IndexedFields)
	}
}

func noSleep(time.Duration) {}
