// Package search implements the local full-text search engine.
//
// It has three parts:
//   - Index: an immutable, validated set of documents built once and
//     replaced wholesale on reload
//   - Score: a deterministic substring/word-overlap relevance function
//   - Engine: filters, scores, sorts and paginates over the current Index
//
// # Scoring
//
// Score lowercases both inputs and trims the query. A full substring match
// scores 1 - (pos/len)*0.3. Otherwise every query word of at least two
// characters found in the text adds 0.8*(1 - (pos/len)*0.2), and the result
// is (sum + matches*0.3) / words. Positions are UTF-16 code units.
//
// The engine combines field scores as
//
//	total = 2*Score(q, title) + Score(q, content) + 1.5*Score(q, excerpt)
//
// and keeps documents with total > 0.1.
//
// # Usage
//
//	idx, err := search.NewIndex(items)
//	if err != nil {
//	    return err
//	}
//	engine := search.NewEngine(idx, search.EngineConfig{Locale: "zh"})
//
//	resp := engine.Search("碳中和", types.SearchFilters{
//	    Type:   types.ContentTypeNews,
//	    SortBy: types.SortByDate,
//	}, search.Page{Limit: 10})
//
// # Ordering
//
// Sorting is stable. Documents with equal keys keep index order, so equal
// relevance scores always come back in the order the content was loaded.
// Title sorting uses locale-aware collation from golang.org/x/text.
//
// The engine is a linear scan. It is meant for a few thousand documents.
package search
