// Package searcher dispatches parameterized match queries against the store.
// Exactly one filter is active per invocation; its value is resolved into a
// bound predicate before any query is issued, so malformed input fails fast
// and user input never reaches the statement text.
package searcher

import (
	"context"
	"fmt"

	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/internal/store"
	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

// DefaultLimit caps results when the caller does not say otherwise.
const DefaultLimit = 10

// Request names one schema, one of its filters, and the filter's value.
type Request struct {
	Schema *schema.Schema
	Filter schema.Filter
	Value  string
	Limit  int
}

// Searcher runs retrieval requests.
type Searcher struct {
	store store.Store
}

// New creates a Searcher.
func New(st store.Store) *Searcher {
	return &Searcher{store: st}
}

// Search resolves the request's filter and returns up to Limit matches in
// store order.
func (s *Searcher) Search(ctx context.Context, req Request) ([]types.Match, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	pred, err := req.Filter.Resolve(req.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value for --%s: %w", req.Filter.Flag, err)
	}
	return s.store.QueryMatches(ctx, req.Schema, pred, req.Limit)
}
