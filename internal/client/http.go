package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dshills/contentsearch/pkg/types"
)

// DefaultTimeout bounds a single HTTP attempt
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 512

// RequestIDHeader carries a per-attempt id for tracing on the server side
const RequestIDHeader = "X-Request-ID"

// HTTPConfig configures an HTTPTransport
type HTTPConfig struct {
	BaseURL    string        // Search endpoint, e.g. https://example.com/api/search
	Timeout    time.Duration // Per attempt (default 10s)
	RateLimit  float64       // Requests per second; zero disables limiting
	Burst      int           // Limiter burst (default 1)
	Retry      RetryConfig   // Zero value uses DefaultRetryConfig
	HTTPClient *http.Client  // Overrides Timeout when set
	Logger     *zap.Logger
}

// HTTPTransport calls the remote search endpoint with GET requests
type HTTPTransport struct {
	endpoint   *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
	logger     *zap.Logger
}

// NewHTTPTransport validates cfg and creates a transport
func NewHTTPTransport(cfg HTTPConfig) (*HTTPTransport, error) {
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid search endpoint %q: scheme must be http or https", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	t := &HTTPTransport{
		endpoint:   endpoint,
		httpClient: cfg.HTTPClient,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return t, nil
}

// Search fetches one page of results, retrying transient failures.
// Failures come back as *types.TransportError.
func (t *HTTPTransport) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	return retryWithBackoff(ctx, t.retry, func() (*types.SearchResponse, error) {
		return t.do(ctx, req)
	})
}

// do performs a single attempt
func (t *HTTPTransport) do(ctx context.Context, req Request) (*types.SearchResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := *t.endpoint
	u.RawQuery = t.query(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Debug("search request failed",
			zap.String("request_id", requestID), zap.Error(err))
		return nil, &types.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	t.logger.Debug("search request",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &types.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api error: %s", string(body)),
		}
	}

	var out types.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &types.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := out.Validate(); err != nil {
		return nil, &types.TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if out.Results == nil {
		out.Results = []types.SearchResultItem{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []types.SearchResultItem{}
	}

	return &out, nil
}

// query encodes req as endpoint parameters
func (t *HTTPTransport) query(req Request) url.Values {
	q := t.endpoint.Query()
	for k, v := range req.Filters.Params() {
		q.Set(k, v)
	}
	q.Set("query", req.Query)
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("offset", strconv.Itoa(req.Offset))
	return q
}

// IsStatus reports whether err is a TransportError with the given status
func IsStatus(err error, status int) bool {
	var te *types.TransportError
	return errors.As(err, &te) && te.StatusCode == status
}
