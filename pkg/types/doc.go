// Package types defines the value types shared by the search layer.
//
// # Documents
//
// SearchResultItem is a single indexed page, news post, service, case study or
// resource. Its ID is the identity used by the index and by result sets:
//
//	item := types.SearchResultItem{
//	    ID:         "news-42",
//	    Type:       types.ContentTypeNews,
//	    Title:      "碳中和路线图",
//	    Excerpt:    "年度报告摘要",
//	    Content:    "……",
//	    URL:        "/news/42",
//	    Breadcrumb: []string{"首页", "新闻"},
//	}
//
// # Filters
//
// SearchFilters is a pure value object. Params flattens it into a map so the
// cache layer can build keys that do not depend on field order:
//
//	f := types.SearchFilters{Type: types.ContentTypeNews, SortBy: types.SortByDate}
//	key := cache.QueryKey("碳", f.Params())
//
// Empty fields mean the defaults: all types, all time, relevance order.
//
// # Responses
//
// SearchResponse carries the paginated results, the total number of matches,
// and up to SuggestionCount top-ranked suggestions taken before pagination.
// Took is in milliseconds. Clone returns a deep copy; caches hand out clones so
// callers never alias cached data.
//
// # Errors
//
// TransportError wraps failed remote calls and matches ErrSearchUnavailable:
//
//	resp, err := c.Search(ctx, req)
//	if errors.Is(err, types.ErrSearchUnavailable) {
//	    // show "search temporarily unavailable" or fall back to local search
//	}
//
// ErrMalformedCacheEntry is only used internally: corrupt persisted entries are
// deleted and treated as cache misses.
package types
