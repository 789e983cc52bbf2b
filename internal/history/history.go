// Package history keeps the user's recent searches and search preferences
// in the shared key/value store, next to the persistent result cache.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/contentsearch/internal/storage"
	"github.com/dshills/contentsearch/pkg/types"
)

// Store key prefixes
const (
	HistoryPrefix     = "search_history_"
	PreferencesPrefix = "search_prefs_"

	recentKey      = "recent"
	preferencesKey = "default"
)

// DefaultMaxItems bounds the recent search list
const DefaultMaxItems = 10

// History is a most-recent-first list of distinct queries
type History struct {
	mu       sync.Mutex
	store    *storage.PrefixedStore
	maxItems int
	logger   *zap.Logger
}

// New creates a History on store. maxItems <= 0 uses DefaultMaxItems.
func New(store storage.Store, maxItems int, logger *zap.Logger) *History {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		store:    storage.Prefixed(store, HistoryPrefix),
		maxItems: maxItems,
		logger:   logger,
	}
}

// Add moves query to the front of the list, dropping the oldest entries
// past the limit. Blank queries are ignored. Matching is case-insensitive.
func (h *History) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	current := h.load(ctx)
	next := make([]string, 0, len(current)+1)
	next = append(next, query)
	for _, q := range current {
		if !strings.EqualFold(q, query) {
			next = append(next, q)
		}
	}
	if len(next) > h.maxItems {
		next = next[:h.maxItems]
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := h.store.Set(ctx, recentKey, string(data)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// List returns recent queries, newest first
func (h *History) List(ctx context.Context) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

// Clear forgets every recent query
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Remove(ctx, recentKey)
}

// load reads the list; missing or corrupt data reads as empty
func (h *History) load(ctx context.Context) []string {
	raw, err := h.store.Get(ctx, recentKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("failed to read search history", zap.Error(err))
		}
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		h.logger.Warn("discarding corrupt search history", zap.Error(err))
		return []string{}
	}
	return list
}

// Preferences are the user's default search settings
type Preferences struct {
	Filters  types.SearchFilters `json:"filters"`
	PageSize int                 `json:"pageSize"`
}

// DefaultPreferences returns the settings used when none are saved
func DefaultPreferences() Preferences {
	return Preferences{Filters: types.DefaultFilters(), PageSize: 10}
}

// PreferenceStore persists Preferences
type PreferenceStore struct {
	store  *storage.PrefixedStore
	logger *zap.Logger
}

// NewPreferenceStore creates a PreferenceStore on store
func NewPreferenceStore(store storage.Store, logger *zap.Logger) *PreferenceStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceStore{store: storage.Prefixed(store, PreferencesPrefix), logger: logger}
}

// Load returns saved preferences, or the defaults when none are saved or
// the saved value is unusable
func (p *PreferenceStore) Load(ctx context.Context) Preferences {
	raw, err := p.store.Get(ctx, preferencesKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("failed to read search preferences", zap.Error(err))
		}
		return DefaultPreferences()
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		p.logger.Warn("discarding corrupt search preferences", zap.Error(err))
		return DefaultPreferences()
	}
	if err := prefs.Filters.Validate(); err != nil {
		p.logger.Warn("discarding invalid search preferences", zap.Error(err))
		return DefaultPreferences()
	}

	prefs.Filters = prefs.Filters.Normalize()
	if prefs.PageSize <= 0 {
		prefs.PageSize = DefaultPreferences().PageSize
	}
	return prefs
}

// Save validates and stores prefs
func (p *PreferenceStore) Save(ctx context.Context, prefs Preferences) error {
	if err := prefs.Filters.Validate(); err != nil {
		return err
	}
	prefs.Filters = prefs.Filters.Normalize()

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return p.store.Set(ctx, preferencesKey, string(data))
}
