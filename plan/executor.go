package plan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/goshops-com/StormiDB/internal/queryparse"
	"github.com/goshops-com/StormiDB/store"
)

// Logger is the minimal logging surface the executor needs: a warning
// when a document fetch fails transiently mid-listing. It is satisfied by
// *logging.Logger without this package importing it directly.
type Logger interface {
	Warn(msg string, err error, fields ...map[string]interface{})
}

// nopLogger is used when the caller doesn't supply one.
type nopLogger struct{}

func (nopLogger) Warn(string, error, ...map[string]interface{}) {}

const systemPrefix = "__"

// Execute runs p against s, returning the matching documents (decoded
// JSON objects) in candidate order, after offset/limit are applied. It
// fetches each candidate, decodes it, and applies p.Residual in memory; a
// transient fetch error or a 404 (the document was deleted between list
// and fetch) drops that single hit rather than failing the call.
func Execute(ctx context.Context, s store.Store, container string, p *Plan, offset, limit int, logger Logger) ([]map[string]interface{}, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	it, err := candidateIterator(ctx, s, container, p)
	if err != nil {
		return nil, err
	}
	defer it.Stop()

	var results []map[string]interface{}
	skipped := 0
	for {
		name, err := it.Next(ctx)
		if errors.Is(err, store.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, systemPrefix) {
			continue
		}
		doc, ok, err := fetchAndFilter(ctx, s, container, name, p.Residual, logger)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		results = append(results, doc)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Count is like Execute but only counts matches, without materializing or
// paginating the result set.
func Count(ctx context.Context, s store.Store, container string, p *Plan, logger Logger) (int, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	it, err := candidateIterator(ctx, s, container, p)
	if err != nil {
		return 0, err
	}
	defer it.Stop()

	n := 0
	for {
		name, err := it.Next(ctx)
		if errors.Is(err, store.Done) {
			break
		}
		if err != nil {
			return 0, err
		}
		if strings.HasPrefix(name, systemPrefix) {
			continue
		}
		_, ok, err := fetchAndFilter(ctx, s, container, name, p.Residual, logger)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func candidateIterator(ctx context.Context, s store.Store, container string, p *Plan) (store.Iterator, error) {
	switch p.Mode {
	case ModeListing, ModeFullScan:
		return s.List(ctx, container)
	default:
		return s.FindByTags(ctx, container, p.FilterExpr)
	}
}

func fetchAndFilter(ctx context.Context, s store.Store, container, name string, residual *queryparse.Query, logger Logger) (map[string]interface{}, bool, error) {
	res, err := s.Get(ctx, container, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		logger.Warn("transient error fetching document during query, dropping hit", err, map[string]interface{}{"name": name})
		return nil, false, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(res.Bytes, &doc); err != nil {
		logger.Warn("transient error decoding document during query, dropping hit", err, map[string]interface{}{"name": name})
		return nil, false, nil
	}
	if residual != nil && !queryparse.Matches(doc, residual) {
		return nil, false, nil
	}
	return doc, true, nil
}
