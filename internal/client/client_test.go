package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/contentsearch/internal/cache"
	"github.com/dshills/contentsearch/internal/history"
	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/internal/storage"
	"github.com/dshills/contentsearch/pkg/types"
)

// fakeTransport counts calls and answers with a canned response or error
type fakeTransport struct {
	calls   atomic.Int32
	results int
	err     error
	release chan struct{} // When set, calls block until it is closed
}

func (f *fakeTransport) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}

	resp := types.EmptyResponse(req.Query)
	for i := 0; i < f.results; i++ {
		resp.Results = append(resp.Results, types.SearchResultItem{
			ID:         fmt.Sprintf("r%d", i),
			Type:       types.ContentTypePage,
			Title:      "result",
			Content:    "result",
			Breadcrumb: []string{"Home"},
		})
	}
	resp.Total = f.results
	return resp, nil
}

func newTestCache(t *testing.T, now func() time.Time) *cache.Cache[*types.SearchResponse] {
	t.Helper()
	c := cache.New[*types.SearchResponse](cache.Config{SweepInterval: -1, Now: now})
	t.Cleanup(c.Close)
	return c
}

func TestClient_EmptyQuery(t *testing.T) {
	ft := &fakeTransport{results: 1}
	c := New(ft, Options{})
	defer c.Close()

	resp, err := c.Search(context.Background(), Request{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, int32(0), ft.calls.Load())
	assert.Equal(t, int64(0), c.Stats().TotalSearches)
}

func TestClient_MissThenHit(t *testing.T) {
	ft := &fakeTransport{results: 3}
	c := New(ft, Options{})
	defer c.Close()
	ctx := context.Background()

	req := Request{Query: "Carbon", Filters: types.SearchFilters{Type: types.ContentTypeNews}}

	first, err := c.Search(ctx, req)
	require.NoError(t, err)
	assert.Len(t, first.Results, 3)

	// Same search with different casing and explicit defaults hits the cache
	second, err := c.Search(ctx, Request{Query: " carbon ", Filters: types.SearchFilters{
		Type: types.ContentTypeNews, TimeRange: types.TimeRangeAll, SortBy: types.SortByRelevance,
	}, Limit: search.DefaultLimit})
	require.NoError(t, err)
	assert.Equal(t, first.Results, second.Results)

	assert.Equal(t, int32(1), ft.calls.Load())
	stats := c.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.InDelta(t, 0.5, stats.CacheHitRate, 1e-9)

	// A different page is a different key
	_, err = c.Search(ctx, Request{Query: "carbon", Filters: req.Filters, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, int32(2), ft.calls.Load())
}

func TestClient_ResultSizeDependentTTL(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		results int
		want    time.Duration
	}{
		{"Large", 11, LargeResultTTL},
		{"Boundary", 10, SmallResultTTL},
		{"Small", 2, SmallResultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttlCache := newTestCache(t, clock)
			c := New(&fakeTransport{results: tt.results}, Options{Cache: ttlCache, Now: clock})

			req := Request{Query: "energy", Limit: 50}
			_, err := c.Search(context.Background(), req)
			require.NoError(t, err)

			item, ok := ttlCache.Item(req.Normalize().CacheKey())
			require.True(t, ok)
			assert.Equal(t, tt.want.Milliseconds(), item.ExpiresAt-item.Timestamp)
		})
	}
}

func TestClient_ConcurrentIdenticalSearchesShareOneFetch(t *testing.T) {
	ft := &fakeTransport{results: 2, release: make(chan struct{})}
	c := New(ft, Options{})
	defer c.Close()

	const n = 10
	results := make([]*types.SearchResponse, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Search(context.Background(), Request{Query: "wind"})
			assert.NoError(t, err)
			results[i] = resp
		}(i)
	}

	require.Eventually(t, func() bool { return ft.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(ft.release)
	wg.Wait()

	assert.Equal(t, int32(1), ft.calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0], r)
	}
	// Each caller owns its copy
	results[0].Results[0].Title = "mutated"
	assert.Equal(t, "result", results[1].Results[0].Title)
}

func TestClient_TransportErrors(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"PlainError", boom, 0},
		{"TransportError", &types.TransportError{StatusCode: 503, Err: boom}, 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{err: tt.err}
			c := New(ft, Options{})
			defer c.Close()

			resp, err := c.Search(context.Background(), Request{Query: "solar"})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, types.ErrSearchUnavailable)
			assert.ErrorIs(t, err, boom)

			var te *types.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.wantStatus, te.StatusCode)

			// Failures are not cached
			_, _ = c.Search(context.Background(), Request{Query: "solar"})
			assert.Equal(t, int32(2), ft.calls.Load())
			assert.Equal(t, 0, c.CacheLen())
		})
	}
}

func TestClient_ErrorRate(t *testing.T) {
	ft := &fakeTransport{results: 1}
	c := New(ft, Options{})
	defer c.Close()
	ctx := context.Background()

	_, err := c.Search(ctx, Request{Query: "a1"})
	require.NoError(t, err)
	_, err = c.Search(ctx, Request{Query: "a2"})
	require.NoError(t, err)

	ft.err = errors.New("down")
	_, err = c.Search(ctx, Request{Query: "a3"})
	require.Error(t, err)

	assert.InDelta(t, 0.5, c.Stats().ErrorRate, 1e-9)
}

func TestClient_CallerCancellation(t *testing.T) {
	ft := &fakeTransport{results: 1, release: make(chan struct{})}
	c := New(ft, Options{})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Search(ctx, Request{Query: "grid"})
		done <- err
	}()

	require.Eventually(t, func() bool { return ft.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrSearchUnavailable)

	// The abandoned fetch still completes and fills the cache
	close(ft.release)
	require.Eventually(t, func() bool { return c.CacheLen() == 1 }, time.Second, time.Millisecond)

	assert.Zero(t, c.Stats().ErrorRate)
}

func TestClient_PersistentCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := New(&fakeTransport{results: 4}, Options{
		Persistent: cache.NewPersistent[*types.SearchResponse](store, cache.PersistentConfig{DefaultTTL: time.Hour}),
	})
	defer first.Close()
	_, err := first.Search(ctx, Request{Query: "hydrogen"})
	require.NoError(t, err)

	keys, err := store.Keys(ctx, cache.DefaultPersistentPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	// A new process: empty memory cache, same durable store
	ft := &fakeTransport{results: 1}
	second := New(ft, Options{
		Persistent: cache.NewPersistent[*types.SearchResponse](store, cache.PersistentConfig{DefaultTTL: time.Hour}),
	})
	defer second.Close()

	resp, source, err := second.search(ctx, Request{Query: "hydrogen"})
	require.NoError(t, err)
	assert.Equal(t, SourcePersistent, source)
	assert.Len(t, resp.Results, 4)
	assert.Equal(t, int32(0), ft.calls.Load())
	assert.InDelta(t, 1.0, second.Stats().CacheHitRate, 1e-9)

	// Promoted into the memory tier
	_, source, err = second.search(ctx, Request{Query: "hydrogen"})
	require.NoError(t, err)
	assert.Equal(t, SourceMemory, source)

	require.NoError(t, second.ClearCache(ctx))
	assert.Equal(t, 0, second.CacheLen())
	keys, err = store.Keys(ctx, cache.DefaultPersistentPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestClient_SearchWithFallback(t *testing.T) {
	idx, err := search.NewIndex([]types.SearchResultItem{
		{ID: "local-1", Type: types.ContentTypePage, Title: "Solar panels", Content: "Solar panels on every roof"},
	})
	require.NoError(t, err)
	local := NewLocalTransport(search.NewEngine(idx, search.EngineConfig{}))

	ft := &fakeTransport{err: &types.TransportError{StatusCode: 502, Err: errors.New("bad gateway")}}
	c := New(ft, Options{Fallback: local})
	defer c.Close()

	resp, fellBack, err := c.SearchWithFallback(context.Background(), Request{Query: "solar"})
	require.NoError(t, err)
	assert.True(t, fellBack)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "local-1", resp.Results[0].ID)
	assert.Equal(t, 0, c.CacheLen(), "fallback results are not cached")

	// Healthy remote: no fallback
	ft.err = nil
	ft.results = 2
	resp, fellBack, err = c.SearchWithFallback(context.Background(), Request{Query: "solar"})
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Len(t, resp.Results, 2)
}

func TestClient_SearchWithoutFallbackSurfacesError(t *testing.T) {
	c := New(&fakeTransport{err: errors.New("down")}, Options{})
	defer c.Close()

	_, fellBack, err := c.SearchWithFallback(context.Background(), Request{Query: "solar"})
	assert.False(t, fellBack)
	assert.ErrorIs(t, err, types.ErrSearchUnavailable)
}

func TestClient_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	h := history.New(storage.NewMemoryStore(), 5, nil)
	c := New(&fakeTransport{results: 1}, Options{History: h})
	defer c.Close()

	_, err := c.Search(ctx, Request{Query: "wind"})
	require.NoError(t, err)
	_, err = c.Search(ctx, Request{Query: "solar"})
	require.NoError(t, err)
	_, err = c.Search(ctx, Request{Query: ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"solar", "wind"}, h.List(ctx))
}

func TestLocalTransport(t *testing.T) {
	idx, err := search.NewIndex([]types.SearchResultItem{
		{ID: "a", Type: types.ContentTypeNews, Title: "wind", Content: "wind"},
		{ID: "b", Type: types.ContentTypePage, Title: "wind", Content: "wind"},
	})
	require.NoError(t, err)
	lt := NewLocalTransport(search.NewEngine(idx, search.EngineConfig{}))

	resp, err := lt.Search(context.Background(), Request{
		Query:   "wind",
		Filters: types.SearchFilters{Type: types.ContentTypePage},
	}.Normalize())
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "b", resp.Results[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lt.Search(ctx, Request{Query: "wind"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_CacheKey(t *testing.T) {
	a := Request{Query: "Carbon", Filters: types.SearchFilters{SortBy: types.SortByDate}}.Normalize()
	b := Request{Query: "carbon ", Filters: types.SearchFilters{SortBy: types.SortByDate, Type: types.ContentTypeAll}, Limit: 10}.Normalize()
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, "carbon|limit:10|offset:0|sortBy:date|timeRange:all|type:all", a.CacheKey())

	c := Request{Query: "carbon", Filters: types.SearchFilters{SortBy: types.SortByDate}, Limit: 20}.Normalize()
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestRequest_Normalize(t *testing.T) {
	r := Request{Query: "x", Limit: 500, Offset: -3}.Normalize()
	assert.Equal(t, search.MaxLimit, r.Limit)
	assert.Equal(t, 0, r.Offset)
	assert.Equal(t, types.DefaultFilters(), r.Filters)
}
