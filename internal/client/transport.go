package client

import (
	"context"
	"strconv"
	"strings"

	"github.com/dshills/contentsearch/internal/cache"
	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/pkg/types"
)

// Request is one search as issued by a caller
type Request struct {
	Query   string
	Filters types.SearchFilters
	Limit   int
	Offset  int
}

// Normalize fills defaults and clamps the page window
func (r Request) Normalize() Request {
	page := search.Page{Limit: r.Limit, Offset: r.Offset}.Normalize()
	r.Limit = page.Limit
	r.Offset = page.Offset
	r.Filters = r.Filters.Normalize()
	return r
}

// Empty reports whether the query has nothing to search for
func (r Request) Empty() bool {
	return strings.TrimSpace(r.Query) == ""
}

// CacheKey identifies r in every cache tier and in the de-duplicator.
// Call it on a normalized request.
func (r Request) CacheKey() string {
	params := r.Filters.Params()
	params["limit"] = strconv.Itoa(r.Limit)
	params["offset"] = strconv.Itoa(r.Offset)
	return cache.QueryKey(r.Query, params)
}

// Transport performs the actual search behind the client's cache stack
type Transport interface {
	Search(ctx context.Context, req Request) (*types.SearchResponse, error)
}

// LocalTransport serves searches from the in-process engine, for offline
// mode and as the fallback when the remote endpoint is unavailable
type LocalTransport struct {
	engine *search.Engine
}

// NewLocalTransport wraps engine
func NewLocalTransport(engine *search.Engine) *LocalTransport {
	return &LocalTransport{engine: engine}
}

// Search runs req against the local index
func (l *LocalTransport) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.engine.Search(req.Query, req.Filters, search.Page{Limit: req.Limit, Offset: req.Offset}), nil
}
