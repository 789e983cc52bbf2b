package search

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dshills/contentsearch/pkg/types"
)

// Page limits
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Relevance weights per field
const (
	titleWeight   = 2.0
	contentWeight = 1.0
	excerptWeight = 1.5

	// minRelevance is the exclusive lower bound a document must beat
	minRelevance = 0.1
)

// DefaultLocale drives title collation when none is configured
const DefaultLocale = "zh"

// Page selects a window of the sorted results
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default limit and clamps both fields
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// EngineConfig holds construction-time settings for an Engine
type EngineConfig struct {
	Locale string           // BCP 47 tag for title sorting (default "zh")
	Now    func() time.Time // Clock for time-range windows and timing
	Logger *zap.Logger
}

// Engine runs filtered, scored, sorted searches over an Index. Search never
// blocks on I/O and is safe to call while Replace swaps the index.
type Engine struct {
	index  atomic.Pointer[Index]
	lang   language.Tag
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates an engine over idx. A nil idx is treated as empty.
func NewEngine(idx *Index, cfg EngineConfig) *Engine {
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		cfg.Logger.Warn("unknown collation locale, using default",
			zap.String("locale", cfg.Locale), zap.Error(err))
		tag = language.Make(DefaultLocale)
	}

	e := &Engine{
		lang:   tag,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
	e.Replace(idx)
	return e
}

// Replace swaps in a new index. In-flight searches finish on the old one.
func (e *Engine) Replace(idx *Index) {
	if idx == nil {
		idx = &Index{byID: map[string]int{}}
	}
	e.index.Store(idx)
}

// Index returns the index currently being searched
func (e *Engine) Index() *Index {
	return e.index.Load()
}

// scored pairs an index position with its relevance
type scored struct {
	item  *types.SearchResultItem
	score float64
}

// Search scores every document against query and returns one page of the
// sorted matches. An empty query returns an empty response without scoring.
func (e *Engine) Search(query string, filters types.SearchFilters, page Page) *types.SearchResponse {
	start := e.now()

	if strings.TrimSpace(query) == "" {
		return types.EmptyResponse(query)
	}

	filters = filters.Normalize()
	page = page.Normalize()
	idx := e.index.Load()

	matches := make([]scored, 0, 16)
	for i := range idx.items {
		item := &idx.items[i]
		if !e.accept(item, filters, start) {
			continue
		}

		total := titleWeight*Score(query, item.Title) +
			contentWeight*Score(query, item.Content) +
			excerptWeight*Score(query, item.Excerpt)
		if total > minRelevance {
			matches = append(matches, scored{item: item, score: total})
		}
	}

	e.sort(matches, filters.SortBy)

	resp := &types.SearchResponse{
		Results:     pageOf(matches, page),
		Total:       len(matches),
		Suggestions: pageOf(matches, Page{Limit: types.SuggestionCount}),
		Query:       query,
	}
	resp.Took = e.now().Sub(start).Milliseconds()

	e.logger.Debug("local search",
		zap.String("query", query),
		zap.String("type", string(filters.Type)),
		zap.String("sort", string(filters.SortBy)),
		zap.Int("total", resp.Total),
		zap.Int64("took_ms", resp.Took),
	)

	return resp
}

// accept applies the type and time-range filters
func (e *Engine) accept(item *types.SearchResultItem, f types.SearchFilters, now time.Time) bool {
	if f.Type != types.ContentTypeAll && item.Type != f.Type {
		return false
	}

	if window, ok := f.TimeRange.Window(); ok {
		if item.PublishedAt == nil {
			return false
		}
		return !item.PublishedAt.Before(now.Add(-window))
	}

	if f.TimeRange == types.TimeRangeCustom && (f.From != nil || f.To != nil) {
		if item.PublishedAt == nil {
			return false
		}
		if f.From != nil && item.PublishedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && item.PublishedAt.After(*f.To) {
			return false
		}
	}

	return true
}

// sort orders matches in place. Ties keep index order.
func (e *Engine) sort(matches []scored, by types.SortBy) {
	switch by {
	case types.SortByDate:
		sort.SliceStable(matches, func(i, j int) bool {
			return publishedMillis(matches[i].item) > publishedMillis(matches[j].item)
		})
	case types.SortByTitle:
		// Collators keep internal buffers, so each search gets its own
		col := collate.New(e.lang)
		sort.SliceStable(matches, func(i, j int) bool {
			return col.CompareString(matches[i].item.Title, matches[j].item.Title) < 0
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].score > matches[j].score
		})
	}
}

// publishedMillis treats a missing date as the epoch
func publishedMillis(item *types.SearchResultItem) int64 {
	if item.PublishedAt == nil {
		return 0
	}
	return item.PublishedAt.UnixMilli()
}

// pageOf copies the window [offset, offset+limit) of matches
func pageOf(matches []scored, p Page) []types.SearchResultItem {
	out := []types.SearchResultItem{}
	if p.Offset >= len(matches) {
		return out
	}
	end := p.Offset + p.Limit
	if end > len(matches) {
		end = len(matches)
	}
	for _, m := range matches[p.Offset:end] {
		out = append(out, m.item.Clone())
	}
	return out
}
