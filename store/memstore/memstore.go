// Package memstore provides an in-process, in-memory implementation of
// store.Store. It is suitable for local development, testing, and
// wherever a deployment has no real object-store backend handy; it is
// what the engine's own tests run against.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/goshops-com/StormiDB/internal/tagfilter"
	"github.com/goshops-com/StormiDB/store"
)

// object is a single stored blob plus its tags and current revision.
type object struct {
	data []byte
	tags map[string]string
	etag string
}

type container struct {
	mu      sync.Mutex
	objects map[string]*object
}

// Store is a mutex-protected, map-backed store.Store. The zero value is
// not usable; construct with New.
type Store struct {
	mu         sync.Mutex
	containers map[string]*container
	nextRev    int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{containers: map[string]*container{}}
}

func (s *Store) container(name string) *container {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[name]
	if !ok {
		c = &container{objects: map[string]*object{}}
		s.containers[name] = c
	}
	return c
}

func (s *Store) EnsureContainer(ctx context.Context, name string) error {
	s.container(name)
	return nil
}

func (s *Store) nextETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRev++
	return strconv.FormatInt(s.nextRev, 10)
}

func (s *Store) Put(ctx context.Context, containerName, name string, data []byte, opts store.PutOptions) (store.Attrs, error) {
	c := s.container(containerName)
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, present := c.objects[name]
	if opts.IfNoneMatch == "*" && present {
		return store.Attrs{}, store.ErrPreconditionFailed
	}
	if opts.IfMatch != "" {
		if !present || existing.etag != opts.IfMatch {
			return store.Attrs{}, store.ErrPreconditionFailed
		}
	}

	tags := map[string]string{}
	for k, v := range opts.Tags {
		tags[k] = v
	}
	obj := &object{data: append([]byte(nil), data...), tags: tags, etag: s.nextETag()}
	c.objects[name] = obj
	return store.Attrs{ETag: obj.etag}, nil
}

func (s *Store) Get(ctx context.Context, containerName, name string) (store.GetResult, error) {
	c := s.container(containerName)
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[name]
	if !ok {
		return store.GetResult{}, store.ErrNotFound
	}
	return store.GetResult{Bytes: append([]byte(nil), obj.data...), ETag: obj.etag}, nil
}

func (s *Store) Exists(ctx context.Context, containerName, name string) (bool, error) {
	c := s.container(containerName)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[name]
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, containerName, name string) error {
	c := s.container(containerName)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, name)
	return nil
}

func (s *Store) List(ctx context.Context, containerName string) (store.Iterator, error) {
	c := s.container(containerName)
	c.mu.Lock()
	names := make([]string, 0, len(c.objects))
	for n := range c.objects {
		names = append(names, n)
	}
	c.mu.Unlock()
	sort.Strings(names)
	return &sliceIterator{names: names}, nil
}

// FindByTags emulates the server-side tag search a real object store would
// run natively: it evaluates the conjunctive filter expression against
// each object's in-memory tag map. A real backend pushes this down; this
// reference implementation is the baseline every concrete driver's
// behavior is checked against.
func (s *Store) FindByTags(ctx context.Context, containerName, expr string) (store.Iterator, error) {
	atoms, err := tagfilter.ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	c := s.container(containerName)
	c.mu.Lock()
	var names []string
	for name, obj := range c.objects {
		if tagfilter.Matches(obj.tags, atoms) {
			names = append(names, name)
		}
	}
	c.mu.Unlock()
	sort.Strings(names)
	return &sliceIterator{names: names}, nil
}

func (s *Store) DropContainer(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.containers, name)
	return nil
}

type sliceIterator struct {
	names []string
	i     int
}

func (it *sliceIterator) Next(ctx context.Context) (string, error) {
	if it.i >= len(it.names) {
		return "", store.Done
	}
	n := it.names[it.i]
	it.i++
	return n, nil
}

func (it *sliceIterator) Stop() {
	it.i = len(it.names)
}

var _ store.Store = (*Store)(nil)
