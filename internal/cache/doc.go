// Package cache implements the two cache tiers of the search layer.
//
// Cache is an in-memory TTL cache with a capacity bound. Entries expire
// lazily on Get and are also removed by a background sweep (every 60s by
// default) so keys that are never read again do not pile up. When the cache
// is full, inserting a new key evicts the entry written longest ago. This is
// FIFO by write, not LRU: reads never change eviction order.
//
//	results := cache.New[*types.SearchResponse](cache.Config{
//	    MaxSize:    100,
//	    DefaultTTL: 5 * time.Minute,
//	})
//	defer results.Close()
//
//	results.SetWithQuery("碳中和", filters.Params(), resp, 10*time.Minute)
//	resp, ok := results.GetWithQuery("  碳中和 ", filters.Params())
//
// QueryKey normalizes the query (lowercase, trimmed) and serializes the
// parameters as sorted key:value pairs, so two filter maps with the same
// contents always produce the same key.
//
// Persistent keeps the same TTL contract on top of a storage.Store. Entries
// are JSON envelopes {data, timestamp, expiresAt} under a fixed key prefix;
// a missing expiresAt means the entry lives until cleared. Corrupt entries
// are deleted and reported as misses, never as errors. Durable stores are
// not swept on a timer; call Cleanup once at startup:
//
//	persisted := cache.NewPersistent[*types.SearchResponse](store, cache.PersistentConfig{
//	    DefaultTTL: 24 * time.Hour,
//	})
//	removed, err := persisted.Cleanup(ctx)
//
// The two tiers are independent and may briefly disagree.
package cache
