// Package index owns the lifecycle of a collection's index catalog: the
// well-known metadata blob listing which fields are projected as tags,
// which of those are unique, and the compound indexes defined over them.
package index

import (
	"encoding/json"
	"sort"
)

// CatalogBlobName is the reserved object name the catalog is stored under
// within a collection's container.
const CatalogBlobName = "__collection_indexes"

// MaxIndexedFields is the blob-tag cardinality cap a catalog's
// indexedFields may never exceed.
const MaxIndexedFields = 10

// Definition describes one index, single-field or compound.
type Definition struct {
	Fields []string `json:"fields"`
	Unique bool     `json:"unique"`
}

// id returns the compound-index identifier for this definition: its
// fields joined by "_", order-sensitive.
func (d Definition) id() string {
	out := ""
	for i, f := range d.Fields {
		if i > 0 {
			out += "_"
		}
		out += f
	}
	return out
}

// Catalog is the decoded form of the __collection_indexes blob, plus the
// runtime-only ETag identifying the version it was loaded from.
type Catalog struct {
	IndexedFields []string              `json:"indexedFields"`
	UniqueFields  []string              `json:"uniqueFields"`
	Indexes       map[string]Definition `json:"indexes"`

	// ETag is not part of the persisted JSON; it is the store's entity
	// tag for the version this Catalog was loaded from, empty for a
	// catalog that doesn't exist yet.
	ETag string `json:"-"`
}

// Empty returns a Catalog with no indexes and no ETag, the value used
// when the catalog blob does not exist yet.
func Empty() *Catalog {
	return &Catalog{Indexes: map[string]Definition{}}
}

// Clone returns a deep copy, used so CAS retry loops can mutate a fresh
// copy of the cached catalog on each attempt without aliasing it.
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		IndexedFields: append([]string(nil), c.IndexedFields...),
		UniqueFields:  append([]string(nil), c.UniqueFields...),
		Indexes:       make(map[string]Definition, len(c.Indexes)),
		ETag:          c.ETag,
	}
	for k, v := range c.Indexes {
		clone.Indexes[k] = Definition{Fields: append([]string(nil), v.Fields...), Unique: v.Unique}
	}
	return clone
}

// IndexedSet returns IndexedFields as a set, for the planner's field-
// membership checks.
func (c *Catalog) IndexedSet() map[string]bool {
	set := make(map[string]bool, len(c.IndexedFields))
	for _, f := range c.IndexedFields {
		set[f] = true
	}
	return set
}

// UniqueSet returns UniqueFields as a set.
func (c *Catalog) UniqueSet() map[string]bool {
	set := make(map[string]bool, len(c.UniqueFields))
	for _, f := range c.UniqueFields {
		set[f] = true
	}
	return set
}

// addIndexedField appends field to IndexedFields if not already present,
// keeping the slice sorted for deterministic JSON encoding.
func (c *Catalog) addIndexedField(field string) {
	for _, f := range c.IndexedFields {
		if f == field {
			return
		}
	}
	c.IndexedFields = append(c.IndexedFields, field)
	sort.Strings(c.IndexedFields)
}

func (c *Catalog) addUniqueField(field string) {
	for _, f := range c.UniqueFields {
		if f == field {
			return
		}
	}
	c.UniqueFields = append(c.UniqueFields, field)
	sort.Strings(c.UniqueFields)
}

// ApplyCreateIndex mutates c in place to add or update the index over
// fields, returning an error (not retried) if doing so would push
// IndexedFields past MaxIndexedFields. Idempotent: calling it again with
// the same fields and unique flag is a no-op.
func ApplyCreateIndex(c *Catalog, fields []string, unique bool) error {
	def := Definition{Fields: append([]string(nil), fields...), Unique: unique}
	id := def.id()

	if existing, ok := c.Indexes[id]; ok && existing.Unique == unique {
		return nil // already applied
	}

	newFields := map[string]bool{}
	for _, f := range fields {
		if !contains(c.IndexedFields, f) {
			newFields[f] = true
		}
	}
	if len(c.IndexedFields)+len(newFields) > MaxIndexedFields {
		return ErrTooManyIndexedFields
	}

	if c.Indexes == nil {
		c.Indexes = map[string]Definition{}
	}
	c.Indexes[id] = def
	for _, f := range fields {
		c.addIndexedField(f)
	}
	if unique {
		for _, f := range fields {
			c.addUniqueField(f)
		}
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Marshal encodes the catalog's persisted fields (excluding ETag) as JSON.
func (c *Catalog) Marshal() ([]byte, error) {
	return json.Marshal(struct {
		IndexedFields []string              `json:"indexedFields"`
		UniqueFields  []string              `json:"uniqueFields"`
		Indexes       map[string]Definition `json:"indexes"`
	}{c.IndexedFields, c.UniqueFields, c.Indexes})
}

// Unmarshal decodes data into a fresh Catalog with the given ETag.
func Unmarshal(data []byte, etag string) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Indexes == nil {
		c.Indexes = map[string]Definition{}
	}
	c.ETag = etag
	return &c, nil
}
