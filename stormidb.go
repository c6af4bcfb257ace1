// Package stormidb is the query/index engine for a lightweight document
// database whose durable substrate is a tag-searchable, conditionally-
// writable object store (see the store package). It owns index-catalog
// lifecycle, tag materialization, query planning, and the write path that
// enforces uniqueness; CRUD-facade wiring, id generation policy beyond the
// default, connection bootstrap, and command-line entry points are all
// left to the caller.
package stormidb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goshops-com/StormiDB/index"
	"github.com/goshops-com/StormiDB/internal/queryparse"
	"github.com/goshops-com/StormiDB/internal/tagcodec"
	"github.com/goshops-com/StormiDB/logging"
	"github.com/goshops-com/StormiDB/metrics"
	"github.com/goshops-com/StormiDB/plan"
	"github.com/goshops-com/StormiDB/store"
)

// Engine is the core's entry point: one Engine per backing Store,
// shared across collections.
type Engine struct {
	store   store.Store
	catalog *index.Cache
	idgen   IDGenerator
	logger  *logging.Logger
	metrics *metrics.Metrics

	collectionsMu sync.Mutex
	collections   map[string]bool
}

// Options configures an Engine. All fields are optional; New substitutes
// the defaults documented on IDGenerator, logging.NewNop, and
// metrics.New.
type Options struct {
	IDGenerator IDGenerator
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
}

// New returns an Engine backed by s.
func New(s store.Store, opts Options) *Engine {
	if opts.IDGenerator == nil {
		opts.IDGenerator = DefaultIDGenerator
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Engine{
		store:       s,
		catalog:     index.NewCache(),
		idgen:       opts.IDGenerator,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		collections: map[string]bool{},
	}
}

func (e *Engine) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.OperationTotal.WithLabelValues(op, outcome).Inc()
	e.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (e *Engine) container(collection string) string {
	name := sanitizeCollectionName(collection)
	e.collectionsMu.Lock()
	e.collections[name] = true
	e.collectionsMu.Unlock()
	return name
}

// buildTags projects doc's indexed fields into a tag map per the
// catalog's current indexedFields/uniqueFields, using the hashed form for
// unique fields and the reversible form otherwise. Fields with no tag
// encoding are skipped with a warning (Unsupported), not an error.
func (e *Engine) buildTags(cat *index.Catalog, doc map[string]interface{}) map[string]string {
	unique := cat.UniqueSet()
	tags := map[string]string{}
	for _, field := range cat.IndexedFields {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		if unique[field] {
			s, ok := tagcodec.Stringize(v)
			if !ok {
				e.logger.Warn("field has no tag encoding, skipping unique tag", nil, map[string]interface{}{"field": field})
				continue
			}
			tags[field] = tagcodec.Hash(s)
			continue
		}
		enc, ok := tagcodec.Encode(v)
		if !ok {
			e.logger.Warn("field has no tag encoding, skipping tag", nil, map[string]interface{}{"field": field})
			continue
		}
		tags[field] = enc
	}
	return tags
}

// probeUnique checks whether any document other than excludeID already
// carries value for field, using the catalog's tag-filter dialect
// directly since this is always a single-field equality probe.
func (e *Engine) probeUnique(ctx context.Context, container, field string, value interface{}, unique bool, excludeID string) error {
	var tagValue string
	if unique {
		s, ok := tagcodec.Stringize(value)
		if !ok {
			return nil
		}
		tagValue = tagcodec.Hash(s)
	} else {
		enc, ok := tagcodec.Encode(value)
		if !ok {
			return nil
		}
		tagValue = enc
	}
	expr := fmt.Sprintf(`"%s" = '%s'`, field, escapeQuote(tagValue))
	it, err := e.store.FindByTags(ctx, container, expr)
	if err != nil {
		return err
	}
	defer it.Stop()
	for {
		name, err := it.Next(ctx)
		if err == store.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if name != excludeID {
			e.metrics.UniqueViolations.WithLabelValues(container, field).Inc()
			return newErrorf(UniqueViolation, nil, "value for field %q already exists", field)
		}
	}
}

func escapeQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Create inserts doc into collection, minting an id via the configured
// IDGenerator when id is empty, enforcing any unique-field constraints
// declared on the collection's catalog.
func (e *Engine) Create(ctx context.Context, collection string, doc map[string]interface{}, id string) (string, error) {
	start := time.Now()
	var err error
	defer func() { e.observe("create", start, err) }()

	container := e.container(collection)
	if err = e.store.EnsureContainer(ctx, container); err != nil {
		return "", err
	}
	if id == "" {
		id = e.idgen.NewID()
	}

	cat, loadErr := e.catalog.Load(ctx, e.store, container)
	if loadErr != nil {
		err = loadErr
		return "", err
	}

	doc["id"] = id
	unique := cat.UniqueSet()
	for field := range unique {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		if probeErr := e.probeUnique(ctx, container, field, v, true, id); probeErr != nil {
			err = probeErr
			return "", err
		}
	}

	tags := e.buildTags(cat, doc)
	data, marshalErr := json.Marshal(doc)
	if marshalErr != nil {
		err = marshalErr
		return "", err
	}
	if _, putErr := e.store.Put(ctx, container, id, data, store.PutOptions{Tags: tags, IfNoneMatch: "*"}); putErr != nil {
		err = putErr
		return "", err
	}
	return id, nil
}

// Read fetches the document with the given id from collection.
func (e *Engine) Read(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	start := time.Now()
	var err error
	defer func() { e.observe("read", start, err) }()

	container := e.container(collection)
	res, getErr := e.store.Get(ctx, container, id)
	if getErr == store.ErrNotFound {
		err = newErrorf(NotFound, nil, "document %q not found in %q", id, collection)
		return nil, err
	}
	if getErr != nil {
		err = getErr
		return nil, err
	}
	var doc map[string]interface{}
	if unmarshalErr := json.Unmarshal(res.Bytes, &doc); unmarshalErr != nil {
		err = unmarshalErr
		return nil, err
	}
	return doc, nil
}

// Update replaces the document with the given id in collection with doc,
// recomputing its tags and re-checking unique-field constraints (not
// counting the document's own previous value).
func (e *Engine) Update(ctx context.Context, collection, id string, doc map[string]interface{}) error {
	start := time.Now()
	var err error
	defer func() { e.observe("update", start, err) }()

	container := e.container(collection)
	if _, getErr := e.store.Get(ctx, container, id); getErr == store.ErrNotFound {
		err = newErrorf(NotFound, nil, "document %q not found in %q", id, collection)
		return err
	} else if getErr != nil {
		err = getErr
		return err
	}

	cat, loadErr := e.catalog.Load(ctx, e.store, container)
	if loadErr != nil {
		err = loadErr
		return err
	}

	doc["id"] = id
	unique := cat.UniqueSet()
	for field := range unique {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		if probeErr := e.probeUnique(ctx, container, field, v, true, id); probeErr != nil {
			err = probeErr
			return err
		}
	}

	tags := e.buildTags(cat, doc)
	data, marshalErr := json.Marshal(doc)
	if marshalErr != nil {
		err = marshalErr
		return err
	}
	if _, putErr := e.store.Put(ctx, container, id, data, store.PutOptions{Tags: tags}); putErr != nil {
		err = putErr
		return err
	}
	return nil
}

// Delete removes the document with the given id from collection. It is
// idempotent: deleting a missing id is not an error.
func (e *Engine) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	var err error
	defer func() { e.observe("delete", start, err) }()

	container := e.container(collection)
	err = e.store.Delete(ctx, container, id)
	return err
}

// FindOptions controls pagination for Find.
type FindOptions struct {
	Limit  int
	Offset int
}

// Find runs predicate against collection, returning matching documents.
func (e *Engine) Find(ctx context.Context, collection string, predicate map[string]interface{}, opts FindOptions) ([]map[string]interface{}, error) {
	start := time.Now()
	var err error
	defer func() { e.observe("find", start, err) }()

	container := e.container(collection)
	q, parseErr := queryparse.Parse(predicate)
	if parseErr != nil {
		err = newError(Validation, parseErr, "invalid query")
		return nil, err
	}
	cat, loadErr := e.catalog.Load(ctx, e.store, container)
	if loadErr != nil {
		err = loadErr
		return nil, err
	}
	p, planErr := plan.Select(q, cat.IndexedSet(), cat.UniqueSet())
	if planErr != nil {
		err = planErr
		return nil, err
	}
	e.metrics.QueryModeTotal.WithLabelValues(p.Mode.String()).Inc()

	docs, execErr := plan.Execute(ctx, e.store, container, p, opts.Offset, opts.Limit, e.logger)
	if execErr != nil {
		err = execErr
		return nil, err
	}
	return docs, nil
}

// Count runs predicate against collection, returning the number of
// matching documents without materializing or paginating them.
func (e *Engine) Count(ctx context.Context, collection string, predicate map[string]interface{}) (int, error) {
	start := time.Now()
	var err error
	defer func() { e.observe("count", start, err) }()

	container := e.container(collection)
	q, parseErr := queryparse.Parse(predicate)
	if parseErr != nil {
		err = newError(Validation, parseErr, "invalid query")
		return 0, err
	}
	cat, loadErr := e.catalog.Load(ctx, e.store, container)
	if loadErr != nil {
		err = loadErr
		return 0, err
	}
	p, planErr := plan.Select(q, cat.IndexedSet(), cat.UniqueSet())
	if planErr != nil {
		err = planErr
		return 0, err
	}
	e.metrics.QueryModeTotal.WithLabelValues(p.Mode.String()).Inc()

	n, countErr := plan.Count(ctx, e.store, container, p, e.logger)
	if countErr != nil {
		err = countErr
		return 0, err
	}
	return n, nil
}

// Explain describes, in prose, how predicate would be executed against
// collection under its current catalog, without running it — useful for
// diagnosing why a query fell back to a full scan.
func (e *Engine) Explain(ctx context.Context, collection string, predicate map[string]interface{}) (string, error) {
	container := e.container(collection)
	q, parseErr := queryparse.Parse(predicate)
	if parseErr != nil {
		return "", newError(Validation, parseErr, "invalid query")
	}
	cat, loadErr := e.catalog.Load(ctx, e.store, container)
	if loadErr != nil {
		return "", loadErr
	}
	_, desc, err := plan.Explain(q, cat.IndexedSet(), cat.UniqueSet())
	if err != nil {
		return "", err
	}
	return desc, nil
}

// CreateIndexOptions configures CreateIndex.
type CreateIndexOptions struct {
	Unique bool
}

// CreateIndex adds or updates the index over fields on collection,
// retrying the catalog's compare-and-swap write under contention.
func (e *Engine) CreateIndex(ctx context.Context, collection string, fields []string, opts CreateIndexOptions) error {
	start := time.Now()
	var err error
	defer func() { e.observe("createIndex", start, err) }()

	container := e.container(collection)
	if createErr := e.store.EnsureContainer(ctx, container); createErr != nil {
		err = createErr
		return err
	}
	attempts := 0
	casErr := e.catalog.CreateIndex(ctx, e.store, container, nil, func(c *index.Catalog) error {
		if attempts > 0 {
			e.metrics.CatalogRetries.Inc()
		}
		attempts++
		return index.ApplyCreateIndex(c, fields, opts.Unique)
	})
	if casErr == index.ErrConflict {
		e.metrics.CatalogConflicts.Inc()
		err = newError(Conflict, casErr, "catalog compare-and-swap exhausted its retry budget")
		return err
	}
	if casErr == index.ErrTooManyIndexedFields {
		err = newErrorf(Validation, casErr, "collection %q already has the maximum of %d indexed fields", collection, index.MaxIndexedFields)
		return err
	}
	err = casErr
	return err
}

// DropCollection removes collection and all of its documents and
// catalog, and evicts the catalog cache entry.
func (e *Engine) DropCollection(ctx context.Context, collection string) error {
	start := time.Now()
	var err error
	defer func() { e.observe("dropCollection", start, err) }()

	container := e.container(collection)
	err = e.store.DropContainer(ctx, container)
	e.catalog.Evict(container)
	e.collectionsMu.Lock()
	delete(e.collections, container)
	e.collectionsMu.Unlock()
	return err
}

// ListCollections returns the sanitized names of every collection this
// Engine instance has created or touched since it was constructed. It
// does not enumerate a backend that was pre-populated by another process:
// the store interface has no native "list containers" operation, so this
// reflects only this Engine's own bookkeeping.
func (e *Engine) ListCollections() []string {
	e.collectionsMu.Lock()
	defer e.collectionsMu.Unlock()
	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	return names
}
