package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/contentsearch/internal/cache"
	"github.com/dshills/contentsearch/internal/dedup"
	"github.com/dshills/contentsearch/internal/history"
	"github.com/dshills/contentsearch/internal/monitor"
	"github.com/dshills/contentsearch/pkg/types"
)

// Result-size dependent TTLs for the in-memory cache. Broad queries with
// many results go stale sooner than narrow ones.
const (
	LargeResultTTL       = 5 * time.Minute
	SmallResultTTL       = 10 * time.Minute
	largeResultThreshold = 10
)

// Source says which tier answered a search
type Source string

const (
	SourceMemory     Source = "memory"
	SourcePersistent Source = "persistent"
	SourceRemote     Source = "remote"
	SourceFallback   Source = "fallback"
)

// Outcome is what a shared fetch hands to every waiting caller
type Outcome struct {
	Response *types.SearchResponse
	Source   Source
}

// Options wires the client's collaborators. Nil fields get defaults,
// except Persistent, Fallback and History which stay disabled.
type Options struct {
	Cache      *cache.Cache[*types.SearchResponse]
	Persistent *cache.Persistent[*types.SearchResponse]
	Dedup      *dedup.Group[Outcome]
	Monitor    *monitor.Monitor
	Fallback   Transport
	History    *history.History
	Logger     *zap.Logger
	Now        func() time.Time
}

// Client runs searches through the cache stack in front of a Transport:
// in-memory cache, then a de-duplicated fetch that tries the persistent
// cache before the transport.
type Client struct {
	transport  Transport
	cache      *cache.Cache[*types.SearchResponse]
	ownsCache  bool
	persistent *cache.Persistent[*types.SearchResponse]
	dedup      *dedup.Group[Outcome]
	monitor    *monitor.Monitor
	fallback   Transport
	history    *history.History
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a client on transport
func New(transport Transport, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Client{
		transport:  transport,
		cache:      opts.Cache,
		persistent: opts.Persistent,
		dedup:      opts.Dedup,
		monitor:    opts.Monitor,
		fallback:   opts.Fallback,
		history:    opts.History,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if c.cache == nil {
		c.cache = cache.New[*types.SearchResponse](cache.Config{Now: opts.Now, Logger: opts.Logger})
		c.ownsCache = true
	}
	if c.dedup == nil {
		c.dedup = dedup.New[Outcome]()
	}
	if c.monitor == nil {
		c.monitor = monitor.New()
	}
	return c
}

// Search returns results for req. An empty query returns an empty response
// without touching any cache. Transport failures come back as
// *types.TransportError, which matches types.ErrSearchUnavailable.
func (c *Client) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	resp, _, err := c.search(ctx, req)
	return resp, err
}

// SearchWithFallback is Search, but when the remote side is unavailable
// the local engine answers instead. fellBack reports which happened.
// Fallback results are never cached.
func (c *Client) SearchWithFallback(ctx context.Context, req Request) (resp *types.SearchResponse, fellBack bool, err error) {
	resp, _, err = c.search(ctx, req)
	if err == nil || c.fallback == nil || !errors.Is(err, types.ErrSearchUnavailable) {
		return resp, false, err
	}

	start := c.now()
	local, ferr := c.fallback.Search(ctx, req.Normalize())
	if ferr != nil {
		c.logger.Warn("fallback search failed", zap.String("query", req.Query), zap.Error(ferr))
		return nil, false, err
	}
	c.monitor.RecordSearch(c.now().Sub(start), false)

	c.logger.Info("served search from local fallback",
		zap.String("query", req.Query), zap.NamedError("remote_error", err))
	return local, true, nil
}

// search implements Search and also reports the answering tier
func (c *Client) search(ctx context.Context, req Request) (*types.SearchResponse, Source, error) {
	start := c.now()

	req = req.Normalize()
	if req.Empty() {
		return types.EmptyResponse(req.Query), "", nil
	}

	key := req.CacheKey()
	if resp, ok := c.cache.Get(key); ok {
		c.monitor.RecordSearch(c.now().Sub(start), true)
		c.remember(ctx, req.Query)
		return resp.Clone(), SourceMemory, nil
	}

	out, shared, err := c.dedup.Do(ctx, key, func(ctx context.Context) (Outcome, error) {
		return c.fetch(ctx, key, req)
	})
	if err != nil {
		// The caller gave up; the shared fetch itself did not fail
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, "", err
		}

		c.monitor.RecordError()
		c.logger.Warn("search failed",
			zap.String("query", req.Query),
			zap.Bool("shared", shared),
			zap.Error(err),
		)

		var te *types.TransportError
		if !errors.As(err, &te) {
			te = &types.TransportError{Err: err}
		}
		return nil, "", te
	}

	c.monitor.RecordSearch(c.now().Sub(start), out.Source == SourcePersistent)
	c.remember(ctx, req.Query)
	return out.Response.Clone(), out.Source, nil
}

// fetch runs once per key among concurrent callers
func (c *Client) fetch(ctx context.Context, key string, req Request) (Outcome, error) {
	if c.persistent != nil {
		if resp, ok := c.persistent.Get(ctx, key); ok {
			c.cache.SetWithTTL(key, resp.Clone(), ttlFor(resp))
			return Outcome{Response: resp, Source: SourcePersistent}, nil
		}
	}

	resp, err := c.transport.Search(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	c.cache.SetWithTTL(key, resp.Clone(), ttlFor(resp))
	if c.persistent != nil {
		if err := c.persistent.Set(ctx, key, resp, 0); err != nil {
			c.logger.Warn("failed to persist search result", zap.String("key", key), zap.Error(err))
		}
	}

	return Outcome{Response: resp, Source: SourceRemote}, nil
}

// ttlFor picks the in-memory TTL from the result count
func ttlFor(resp *types.SearchResponse) time.Duration {
	if len(resp.Results) > largeResultThreshold {
		return LargeResultTTL
	}
	return SmallResultTTL
}

func (c *Client) remember(ctx context.Context, query string) {
	if c.history == nil {
		return
	}
	if err := c.history.Add(ctx, query); err != nil {
		c.logger.Warn("failed to record search history", zap.Error(err))
	}
}

// Stats returns the monitor snapshot
func (c *Client) Stats() monitor.Stats {
	return c.monitor.Stats()
}

// Monitor exposes the monitor, e.g. for Prometheus registration
func (c *Client) Monitor() *monitor.Monitor {
	return c.monitor
}

// CacheLen returns the number of in-memory cache entries
func (c *Client) CacheLen() int {
	return c.cache.Len()
}

// ClearCache empties the in-memory and persistent caches
func (c *Client) ClearCache(ctx context.Context) error {
	c.cache.Clear()
	if c.persistent != nil {
		return c.persistent.Clear(ctx)
	}
	return nil
}

// Close stops the in-memory cache sweeper if the client created the cache
func (c *Client) Close() {
	if c.ownsCache {
		c.cache.Close()
	}
}
