// Package client is the search entry point used by API and UI glue.
//
// A Client composes the caching stack around a Transport:
//
//	Search(req)
//	  -> empty query?            return an empty response, no I/O
//	  -> in-memory cache hit?    record a cache hit, return a copy
//	  -> de-duplicated fetch     one fetch per key among concurrent callers
//	       -> persistent cache hit?  promote into memory, return
//	       -> transport.Search       store in memory and persistent caches
//
// In-memory entries live 5 minutes when a page has more than 10 results
// and 10 minutes otherwise. Every failure leaving the client is a
// *types.TransportError, which matches types.ErrSearchUnavailable, so
// callers can decide to retry or fall back:
//
//	resp, fellBack, err := c.SearchWithFallback(ctx, client.Request{
//	    Query:   "碳中和",
//	    Filters: types.SearchFilters{Type: types.ContentTypeNews},
//	    Limit:   10,
//	})
//
// # Transports
//
// HTTPTransport calls the remote endpoint with GET and the parameters
// query, type, timeRange, sortBy, limit and offset. It retries network
// errors, 429 and 5xx with exponential backoff, can be rate limited, and
// tags each attempt with an X-Request-ID header.
//
// LocalTransport answers from the in-process search engine. It serves
// offline mode and the fallback path.
//
// # Cancellation
//
// Cancelling a caller's context only stops that caller waiting. A fetch
// shared with other callers keeps running, and its result still lands in
// the caches.
package client
