package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested key doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned when a store is used after Close
	ErrClosed = errors.New("store closed")
)

// Store is a durable string-keyed key/value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set creates or replaces the value for key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every key that starts with prefix, in ascending order
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store
	Close() error
}

// PrefixedStore scopes a Store under a fixed key prefix so unrelated data
// sharing the backend never collides with ours.
type PrefixedStore struct {
	store  Store
	prefix string
}

// Prefixed wraps store so every key is stored as prefix+key
func Prefixed(store Store, prefix string) *PrefixedStore {
	return &PrefixedStore{store: store, prefix: prefix}
}

// Prefix returns the key prefix
func (p *PrefixedStore) Prefix() string {
	return p.prefix
}

func (p *PrefixedStore) Get(ctx context.Context, key string) (string, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *PrefixedStore) Set(ctx context.Context, key, value string) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p *PrefixedStore) Remove(ctx context.Context, key string) error {
	return p.store.Remove(ctx, p.prefix+key)
}

// Keys returns matching keys with the scope prefix stripped
func (p *PrefixedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.store.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}

// Close is a no-op: the underlying store is owned by whoever created it
func (p *PrefixedStore) Close() error {
	return nil
}
