package index

import (
	"context"
	"errors"
	"sync"

	"github.com/goshops-com/StormiDB/store"
)

// Cache is a process-wide, per-collection cache of loaded catalogs. Its
// lifecycle is tied to the Engine instance that owns it; Evict is called
// on dropCollection.
type Cache struct {
	mu   sync.Mutex
	data map[string]*Catalog
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{data: map[string]*Catalog{}}
}

func (c *Cache) get(collection string) (*Catalog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.data[collection]
	return cat, ok
}

func (c *Cache) set(collection string, cat *Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[collection] = cat
}

// Evict removes a collection's cached catalog, e.g. after dropCollection.
func (c *Cache) Evict(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, collection)
}

// Load returns the cached catalog for collection if present, otherwise
// fetches it from s, caching and returning the result. A missing catalog
// blob is not an error: it yields Empty().
func (c *Cache) Load(ctx context.Context, s store.Store, collection string) (*Catalog, error) {
	if cat, ok := c.get(collection); ok {
		return cat, nil
	}
	return c.refresh(ctx, s, collection)
}

// refresh always re-fetches from the store, bypassing the cache read but
// still updating it, used by CreateIndex's CAS retry loop after a conflict.
func (c *Cache) refresh(ctx context.Context, s store.Store, collection string) (*Catalog, error) {
	res, err := s.Get(ctx, collection, CatalogBlobName)
	if errors.Is(err, store.ErrNotFound) {
		cat := Empty()
		c.set(collection, cat)
		return cat, nil
	}
	if err != nil {
		return nil, err
	}
	cat, err := Unmarshal(res.Bytes, res.ETag)
	if err != nil {
		return nil, err
	}
	c.set(collection, cat)
	return cat, nil
}
