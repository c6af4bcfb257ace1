package index

import (
	"context"
	"errors"
	"time"

	"github.com/goshops-com/StormiDB/store"
)

// maxRetries, initialDelay, and maxDelay are the compare-and-swap retry
// budget for catalog writes: backoff is min(initialDelay*2^attempt,
// maxDelay).
const (
	maxRetries   = 5
	initialDelay = 100 * time.Millisecond
	maxDelay     = 5 * time.Second
)

func backoff(attempt int) time.Duration {
	d := initialDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}

// Sleeper abstracts time.Sleep so tests can run the retry loop without
// waiting in real time.
type Sleeper func(time.Duration)

// CreateIndex loads the collection's catalog, applies mutate (typically
// ApplyCreateIndex) to it, and saves it back with compare-and-swap,
// retrying on conflict up to maxRetries times with exponential backoff.
// mutate must be idempotent: it is reapplied to a freshly reloaded
// catalog on every retry. ErrTooManyIndexedFields from mutate is returned
// immediately, without retrying.
func (c *Cache) CreateIndex(ctx context.Context, s store.Store, collection string, sleep Sleeper, mutate func(*Catalog) error) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	cat, err := c.Load(ctx, s, collection)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		working := cat.Clone()
		if err := mutate(working); err != nil {
			return err
		}

		data, err := working.Marshal()
		if err != nil {
			return err
		}

		opts := store.PutOptions{}
		if working.ETag != "" {
			opts.IfMatch = working.ETag
		} else {
			opts.IfNoneMatch = "*"
		}

		attrs, err := s.Put(ctx, collection, CatalogBlobName, data, opts)
		if err == nil {
			working.ETag = attrs.ETag
			c.set(collection, working)
			return nil
		}
		if !errors.Is(err, store.ErrPreconditionFailed) {
			return err
		}

		if attempt >= maxRetries {
			return ErrConflict
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sleep(backoff(attempt))

		cat, err = c.refresh(ctx, s, collection)
		if err != nil {
			return err
		}
	}
}
