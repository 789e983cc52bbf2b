package cache

import (
	"sort"
	"strings"
	"time"
)

// KeySeparator joins the parts of a query key
const KeySeparator = "|"

// QueryKey builds a cache key from a query and its parameters. The query is
// lowercased and trimmed; parameters are serialized as sorted key:value pairs
// so the order in which they were assembled never changes the key.
func QueryKey(query string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+":"+v)
	}
	sort.Strings(pairs)

	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(query)))
	for _, p := range pairs {
		b.WriteString(KeySeparator)
		b.WriteString(p)
	}
	return b.String()
}

// SetWithQuery stores value under the key derived from query and params
func (c *Cache[T]) SetWithQuery(query string, params map[string]string, value T, ttl time.Duration) {
	c.SetWithTTL(QueryKey(query, params), value, ttl)
}

// GetWithQuery looks up the value stored by SetWithQuery
func (c *Cache[T]) GetWithQuery(query string, params map[string]string) (T, bool) {
	return c.Get(QueryKey(query, params))
}
