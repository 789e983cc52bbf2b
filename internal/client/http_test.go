package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/contentsearch/pkg/types"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func newTestTransport(t *testing.T, handler http.HandlerFunc) (*HTTPTransport, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL + "/api/search", Retry: fastRetry()})
	require.NoError(t, err)
	return tr, srv
}

func TestHTTPTransport_Search(t *testing.T) {
	var gotQuery map[string]string
	var gotRequestID string

	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		gotRequestID = r.Header.Get(RequestIDHeader)

		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [{"id": "news-1", "type": "news", "title": "碳中和", "content": "碳中和", "url": "/news/1", "breadcrumb": ["首页"]}],
			"total": 7,
			"suggestions": [],
			"query": "碳中和",
			"took": 12
		}`))
	})

	resp, err := tr.Search(context.Background(), Request{
		Query:   "碳中和",
		Filters: types.SearchFilters{Type: types.ContentTypeNews, SortBy: types.SortByDate},
		Limit:   5,
		Offset:  5,
	}.Normalize())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query":     "碳中和",
		"type":      "news",
		"timeRange": "all",
		"sortBy":    "date",
		"limit":     "5",
		"offset":    "5",
	}, gotQuery)

	_, err = uuid.Parse(gotRequestID)
	assert.NoError(t, err, "request id is a uuid")

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "news-1", resp.Results[0].ID)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, int64(12), resp.Took)
}

func TestHTTPTransport_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(types.EmptyResponse("q"))
	})

	resp, err := tr.Search(context.Background(), Request{Query: "q"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.NotNil(t, resp.Results)
}

func TestHTTPTransport_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int32
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := tr.Search(context.Background(), Request{Query: "q"}.Normalize())
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.ErrorIs(t, err, types.ErrSearchUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestHTTPTransport_FinalErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "NotFound",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such endpoint", http.StatusNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name: "MalformedJSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": [`))
			},
			status: http.StatusOK,
		},
		{
			name: "ResultsExceedTotal",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": [{"id": "a"}, {"id": "b"}], "total": 1}`))
			},
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				tt.handler(w, r)
			})

			_, err := tr.Search(context.Background(), Request{Query: "q"}.Normalize())
			require.Error(t, err)
			assert.Equal(t, int32(1), attempts.Load())
			assert.True(t, IsStatus(err, tt.status))
			assert.ErrorIs(t, err, types.ErrSearchUnavailable)
		})
	}
}

func TestHTTPTransport_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, err := NewHTTPTransport(HTTPConfig{BaseURL: url, Retry: fastRetry()})
	require.NoError(t, err)

	_, err = tr.Search(context.Background(), Request{Query: "q"}.Normalize())
	require.Error(t, err)
	assert.True(t, IsStatus(err, 0))
}

func TestHTTPTransport_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.Search(ctx, Request{Query: "q"}.Normalize())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPTransport_RateLimited(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_ = json.NewEncoder(w).Encode(types.EmptyResponse("q"))
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(HTTPConfig{BaseURL: srv.URL, RateLimit: 1000, Burst: 2})
	require.NoError(t, err)
	require.NotNil(t, tr.limiter)

	for i := 0; i < 5; i++ {
		_, err := tr.Search(context.Background(), Request{Query: "q"}.Normalize())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), attempts.Load())
}

func TestNewHTTPTransport_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://bad"} {
		_, err := NewHTTPTransport(HTTPConfig{BaseURL: u})
		assert.Error(t, err, u)
	}
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := retryWithBackoff(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}, func() (int, error) {
		calls++
		cancel()
		return 0, &types.TransportError{StatusCode: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
