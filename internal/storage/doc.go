// Package storage provides the durable key/value store behind the persistent
// search cache and the search history.
//
// The Store contract is deliberately small: Get, Set, Remove, and prefix
// listing with Keys. Any medium that can hold strings by key can back it.
//
// # Backends
//
//   - SQLiteStore: a single kv_entries table, WAL journal, schema migrations
//     versioned with semver. Pure Go driver (modernc.org/sqlite) by default,
//     github.com/mattn/go-sqlite3 when built with -tags sqlite_cgo.
//   - RedisStore: plain string keys, SCAN for prefix listing.
//   - MemoryStore: a mutex-guarded map for tests and throwaway processes.
//
// # Basic Usage
//
//	store, err := storage.New(ctx, storage.Config{
//	    Backend: storage.BackendSQLite,
//	    Path:    "~/.contentsearch/cache.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	_ = store.Set(ctx, "search_prefs_default", `{"pageSize":20}`)
//	v, err := store.Get(ctx, "search_prefs_default")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // first run
//	}
//
// # Key Prefixes
//
// Components never share keys. Each one wraps the store with Prefixed:
//
//	cacheStore := storage.Prefixed(store, "search_cache_")
//	historyStore := storage.Prefixed(store, "search_history_")
//
// Keys on a PrefixedStore returns keys with the prefix stripped, so callers
// work with their own key space only.
package storage
