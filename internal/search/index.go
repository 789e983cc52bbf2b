package search

import (
	"fmt"
	"time"

	"github.com/dshills/contentsearch/pkg/types"
)

// Index is an immutable collection of searchable documents. It is built
// once and replaced wholesale; nothing mutates it after NewIndex returns.
type Index struct {
	items   []types.SearchResultItem
	byID    map[string]int
	builtAt time.Time
}

// NewIndex validates items and builds an index over deep copies of them.
// Index order follows the input order, which is also the tie-break order
// for equal scores.
func NewIndex(items []types.SearchResultItem) (*Index, error) {
	idx := &Index{
		items:   make([]types.SearchResultItem, 0, len(items)),
		byID:    make(map[string]int, len(items)),
		builtAt: time.Now(),
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := idx.byID[items[i].ID]; dup {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateID, items[i].ID)
		}
		idx.byID[items[i].ID] = len(idx.items)
		idx.items = append(idx.items, items[i].Clone())
	}

	return idx, nil
}

// Len returns the number of documents
func (idx *Index) Len() int {
	return len(idx.items)
}

// Get returns a copy of the document with the given id
func (idx *Index) Get(id string) (types.SearchResultItem, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return types.SearchResultItem{}, false
	}
	return idx.items[i].Clone(), true
}

// Items returns copies of every document in index order
func (idx *Index) Items() []types.SearchResultItem {
	return types.CloneItems(idx.items)
}

// BuiltAt reports when the index was constructed
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// CountByType tallies documents per content type
func (idx *Index) CountByType() map[types.ContentType]int {
	counts := make(map[types.ContentType]int, len(types.ContentTypes))
	for i := range idx.items {
		counts[idx.items[i].Type]++
	}
	return counts
}
