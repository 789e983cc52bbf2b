package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/contentsearch/internal/storage"
	"github.com/dshills/contentsearch/pkg/types"
)

// DefaultPersistentPrefix scopes persisted search results in the shared store
const DefaultPersistentPrefix = "search_cache_"

// PersistentConfig holds construction-time settings for a Persistent cache
type PersistentConfig struct {
	Prefix     string        // Key prefix (default "search_cache_")
	DefaultTTL time.Duration // TTL used when Set is given none; zero means never expire
	Now        func() time.Time
	Logger     *zap.Logger
}

// envelope is the JSON shape written to the store. A missing expiresAt
// means the entry never expires.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
	ExpiresAt *int64          `json:"expiresAt,omitempty"`
}

// Persistent is a TTL cache serialized into a durable Store, so entries
// survive process restarts. It is not swept by a timer; call Cleanup at
// startup instead.
type Persistent[T any] struct {
	store  *storage.PrefixedStore
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewPersistent creates a persistent cache on store
func NewPersistent[T any](store storage.Store, cfg PersistentConfig) *Persistent[T] {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPersistentPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Persistent[T]{
		store:  storage.Prefixed(store, cfg.Prefix),
		ttl:    cfg.DefaultTTL,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
}

// Set persists value under key. A non-positive ttl uses the default.
func (p *Persistent[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = p.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	now := p.now().UnixMilli()
	env := envelope{Data: data, Timestamp: &now}
	if ttl > 0 {
		expiresAt := now + ttl.Milliseconds()
		env.ExpiresAt = &expiresAt
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	return p.store.Set(ctx, key, string(raw))
}

// Get returns the value for key. Missing, expired and corrupt entries are
// all reported as absent; expired and corrupt ones are also deleted.
func (p *Persistent[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	raw, err := p.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		p.logger.Warn("persistent cache read failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}

	value, expired, err := p.decode(raw)
	if err != nil {
		p.logger.Warn("dropping malformed persistent cache entry", zap.String("key", key), zap.Error(err))
		p.remove(ctx, key)
		return zero, false
	}
	if expired {
		p.remove(ctx, key)
		return zero, false
	}

	return value, true
}

// Delete removes key
func (p *Persistent[T]) Delete(ctx context.Context, key string) error {
	return p.store.Remove(ctx, key)
}

// Cleanup purges every expired or corrupt entry under the prefix
func (p *Persistent[T]) Cleanup(ctx context.Context) (int, error) {
	keys, err := p.store.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list persistent cache keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		raw, err := p.store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("read persistent cache entry %s: %w", key, err)
		}

		_, expired, decodeErr := p.decode(raw)
		if decodeErr == nil && !expired {
			continue
		}
		if err := p.store.Remove(ctx, key); err != nil {
			return removed, fmt.Errorf("remove persistent cache entry %s: %w", key, err)
		}
		removed++
	}

	if removed > 0 {
		p.logger.Info("persistent cache cleanup", zap.Int("removed", removed))
	}
	return removed, nil
}

// Clear removes every entry under the prefix
func (p *Persistent[T]) Clear(ctx context.Context) error {
	keys, err := p.store.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("list persistent cache keys: %w", err)
	}
	for _, key := range keys {
		if err := p.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// decode parses a stored envelope
func (p *Persistent[T]) decode(raw string) (value T, expired bool, err error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return value, false, fmt.Errorf("%w: %v", types.ErrMalformedCacheEntry, err)
	}
	if len(env.Data) == 0 || env.Timestamp == nil {
		return value, false, fmt.Errorf("%w: missing data or timestamp", types.ErrMalformedCacheEntry)
	}
	if env.ExpiresAt != nil && *env.ExpiresAt <= *env.Timestamp {
		return value, false, fmt.Errorf("%w: expiresAt not after timestamp", types.ErrMalformedCacheEntry)
	}
	if err := json.Unmarshal(env.Data, &value); err != nil {
		return value, false, fmt.Errorf("%w: %v", types.ErrMalformedCacheEntry, err)
	}

	if env.ExpiresAt != nil && p.now().UnixMilli() >= *env.ExpiresAt {
		return value, true, nil
	}
	return value, false, nil
}

func (p *Persistent[T]) remove(ctx context.Context, key string) {
	if err := p.store.Remove(ctx, key); err != nil {
		p.logger.Warn("persistent cache remove failed", zap.String("key", key), zap.Error(err))
	}
}
