package types

// SuggestionCount is how many top-ranked items are returned as suggestions
const SuggestionCount = 5

// SearchResponse is the result of a search, local or remote
type SearchResponse struct {
	Results     []SearchResultItem `json:"results"`
	Total       int                `json:"total"`
	Suggestions []SearchResultItem `json:"suggestions"`
	Query       string             `json:"query"`
	Took        int64              `json:"took"` // Milliseconds
}

// EmptyResponse is the zero-work answer for a blank query
func EmptyResponse(query string) *SearchResponse {
	return &SearchResponse{
		Results:     []SearchResultItem{},
		Total:       0,
		Suggestions: []SearchResultItem{},
		Query:       query,
	}
}

// Clone creates a deep copy of the response
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	return &SearchResponse{
		Results:     CloneItems(r.Results),
		Total:       r.Total,
		Suggestions: CloneItems(r.Suggestions),
		Query:       r.Query,
		Took:        r.Took,
	}
}

// Validate checks the response invariants
func (r *SearchResponse) Validate() error {
	if r.Total < 0 || len(r.Results) > r.Total {
		return ErrInvalidResponse
	}
	return nil
}
