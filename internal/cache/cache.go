package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
)

// Defaults applied when Config fields are zero
const (
	DefaultMaxSize       = 100
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

// Config holds construction-time settings for a Cache
type Config struct {
	MaxSize       int           // Capacity bound (default 100)
	DefaultTTL    time.Duration // TTL used when Set is given none (default 5m)
	SweepInterval time.Duration // Background sweep period (default 60s, negative disables)
	Now           func() time.Time
	Logger        *zap.Logger
}

// Item is a cached value with its write and expiry times in epoch milliseconds
type Item[T any] struct {
	Data      T
	Timestamp int64
	ExpiresAt int64
}

// validAt reports whether the item is still live at now (epoch ms)
func (it *Item[T]) validAt(now int64) bool {
	return now < it.ExpiresAt
}

// Cache is a capacity-bounded key/value store with per-entry expiry.
//
// Eviction is FIFO by write: when the cache is full, inserting a new key
// removes the entry written longest ago, regardless of how recently it was
// read. Rewriting an existing key counts as a fresh write.
type Cache[T any] struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *Item[T]] // Only Peek is used, so order is write order
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its background sweeper
func New[T any](cfg Config) *Cache[T] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	// Capacity is enforced by Set before inserting; the extra slot keeps
	// simplelru from evicting on its own.
	entries, err := simplelru.NewLRU[string, *Item[T]](cfg.MaxSize+1, nil)
	if err != nil {
		// Only possible with a non-positive size, which is ruled out above
		panic(err)
	}

	c := &Cache[T]{
		entries: entries,
		maxSize: cfg.MaxSize,
		ttl:     cfg.DefaultTTL,
		now:     cfg.Now,
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go c.sweepLoop(cfg.SweepInterval)
	} else {
		close(c.done)
	}

	return c
}

// Set stores value under key with the default TTL
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A non-positive ttl uses the default.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.nowMillis()
	item := &Item[T]{
		Data:      value,
		Timestamp: now,
		ExpiresAt: now + ttl.Milliseconds(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries.Contains(key) {
		// Remove first so the rewrite lands at the newest position
		c.entries.Remove(key)
	} else if c.entries.Len() >= c.maxSize {
		if oldest, _, ok := c.entries.RemoveOldest(); ok {
			c.logger.Debug("cache evicted oldest entry", zap.String("key", oldest))
		}
	}
	c.entries.Add(key, item)
}

// Get returns the value for key. Expired entries are removed and reported absent.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries.Peek(key)
	if !ok {
		return zero, false
	}
	if !item.validAt(c.nowMillis()) {
		c.entries.Remove(key)
		return zero, false
	}
	return item.Data, true
}

// Item returns the stored entry including its timestamps
func (c *Cache[T]) Item(key string) (Item[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries.Peek(key)
	if !ok || !item.validAt(c.nowMillis()) {
		return Item[T]{}, false
	}
	return *item, true
}

// Delete removes key
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet swept
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Keys returns the stored keys from oldest to newest write
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Keys()
}

// Clear empties the cache
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
}

// Sweep removes every expired entry and returns how many were removed
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMillis()
	removed := 0
	for _, key := range c.entries.Keys() {
		item, ok := c.entries.Peek(key)
		if ok && !item.validAt(now) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Close stops the background sweeper. The cache stays usable.
func (c *Cache[T]) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *Cache[T]) sweepLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("cache sweep removed expired entries", zap.Int("removed", n))
			}
		}
	}
}

func (c *Cache[T]) nowMillis() int64 {
	return c.now().UnixMilli()
}
