package stormidb

import (
	"context"
	"fmt"
	"testing"

	"github.com/goshops-com/StormiDB/internal/tagcodec"
	"github.com/goshops-com/StormiDB/store/memstore"
)

func newTestEngine() *Engine {
	return New(memstore.New(), Options{})
}

func TestCreateWithUniqueIndexRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	if err := e.CreateIndex(ctx, "people", []string{"email"}, CreateIndexOptions{Unique: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Create(ctx, "people", map[string]interface{}{"firstName": "John", "email": "a@b"}, ""); err != nil {
		t.Fatal(err)
	}
	_, err := e.Create(ctx, "people", map[string]interface{}{"firstName": "Jim", "email": "a@b"}, "")
	if CodeOf(err) != UniqueViolation {
		t.Fatalf("got %v, want UniqueViolation", err)
	}
}

func TestFindNumericRangeAndBetween(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	if err := e.CreateIndex(ctx, "people", []string{"age"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	for _, age := range []float64{25, 30, 35} {
		if _, err := e.Create(ctx, "people", map[string]interface{}{"age": age}, ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := e.Find(ctx, "people", map[string]interface{}{"age": map[string]interface{}{"$gte": 30.0}}, FindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("$gte 30: got %d docs, want 2", len(got))
	}

	got, err = e.Find(ctx, "people", map[string]interface{}{"age": map[string]interface{}{"$between": []interface{}{26.0, 34.0}}}, FindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("$between [26,34]: got %d docs, want 1", len(got))
	}
}

func TestFindMixedIndexedAndUnindexedFields(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	if err := e.CreateIndex(ctx, "people", []string{"age"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := e.CreateIndex(ctx, "people", []string{"city"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	docs := []map[string]interface{}{
		{"age": 30.0, "city": "NYC", "prof": "Eng"},
		{"age": 30.0, "city": "LA", "prof": "Eng"},
		{"age": 25.0, "city": "NYC", "prof": "Des"},
	}
	for _, d := range docs {
		if _, err := e.Create(ctx, "people", d, ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := e.Find(ctx, "people", map[string]interface{}{"age": 30.0, "city": "NYC"}, FindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("age=30,city=NYC: got %d docs, want 1", len(got))
	}

	got, err = e.Find(ctx, "people", map[string]interface{}{"age": 30.0, "prof": "Eng"}, FindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("age=30,prof=Eng (partial mode): got %d docs, want 2", len(got))
	}
}

func TestHashedUniqueTag(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	e := New(s, Options{})
	if err := e.CreateIndex(ctx, "people", []string{"email"}, CreateIndexOptions{Unique: true}); err != nil {
		t.Fatal(err)
	}
	id, err := e.Create(ctx, "people", map[string]interface{}{"email": "X@Y.com"}, "")
	if err != nil {
		t.Fatal(err)
	}
	// The stored tag is the lowercase hex SHA-256 of the raw value.
	it, err := s.FindByTags(ctx, sanitizeCollectionName("people"), fmt.Sprintf(`"email" = '%s'`, tagcodec.Hash("X@Y.com")))
	if err != nil {
		t.Fatal(err)
	}
	defer it.Stop()
	if name, err := it.Next(ctx); err != nil || name != id {
		t.Errorf("tag search on the hashed email: got %q, %v, want %q", name, err, id)
	}
	got, err := e.Read(ctx, "people", id)
	if err != nil {
		t.Fatal(err)
	}
	if got["email"] != "X@Y.com" {
		t.Errorf("got email %v, want X@Y.com", got["email"])
	}
}

func TestFindEqualityOnUniqueFieldMatches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	if err := e.CreateIndex(ctx, "people", []string{"email"}, CreateIndexOptions{Unique: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Create(ctx, "people", map[string]interface{}{"email": "a@b.com"}, ""); err != nil {
		t.Fatal(err)
	}
	docs, err := e.Find(ctx, "people", map[string]interface{}{"email": "a@b.com"}, FindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1 (equality on a unique/hashed field must still match)", len(docs))
	}
	if docs[0]["email"] != "a@b.com" {
		t.Errorf("got email %v, want a@b.com", docs[0]["email"])
	}
}

func TestFindPagination(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := e.Create(ctx, "people", map[string]interface{}{"n": float64(i)}, "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	got, err := e.Find(ctx, "people", map[string]interface{}{}, FindOptions{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2", len(got))
	}
}

func TestCreateIndexRetriesUnderConflict(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	e := New(s, Options{})
	if err := e.CreateIndex(ctx, "widgets", []string{"a"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	// A second engine on the same store rewrites the catalog, leaving e's
	// cached ETag stale so e's next catalog write conflicts and retries.
	other := New(s, Options{})
	if err := other.CreateIndex(ctx, "widgets", []string{"c"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := e.CreateIndex(ctx, "widgets", []string{"b"}, CreateIndexOptions{}); err != nil {
		t.Fatal(err)
	}
	cat, err := e.catalog.Load(ctx, s, sanitizeCollectionName("widgets"))
	if err != nil {
		t.Fatal(err)
	}
	indexed := cat.IndexedSet()
	if !indexed["a"] || !indexed["b"] || !indexed["c"] {
		t.Errorf("got indexed fields %v, want a, b and c", cat.IndexedFields)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	id, err := e.Create(ctx, "people", map[string]interface{}{"name": "Ada"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Update(ctx, "people", id, map[string]interface{}{"name": "Ada Lovelace"}); err != nil {
		t.Fatal(err)
	}
	got, err := e.Read(ctx, "people", id)
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Ada Lovelace" {
		t.Errorf("got name %v, want Ada Lovelace", got["name"])
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	err := e.Update(ctx, "people", "nope", map[string]interface{}{"name": "x"})
	if CodeOf(err) != NotFound {
		t.Errorf("got %v, want NotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	if err := e.Delete(ctx, "people", "nope"); err != nil {
		t.Errorf("deleting a missing id should be a no-op, got %v", err)
	}
}
