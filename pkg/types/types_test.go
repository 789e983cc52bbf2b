package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchResultItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    SearchResultItem
		wantErr bool
	}{
		{
			name: "valid item",
			item: SearchResultItem{ID: "a", Type: ContentTypePage, Content: "text"},
		},
		{
			name:    "missing id",
			item:    SearchResultItem{Type: ContentTypePage, Content: "text"},
			wantErr: true,
		},
		{
			name:    "filter-only type",
			item:    SearchResultItem{ID: "a", Type: ContentTypeAll, Content: "text"},
			wantErr: true,
		},
		{
			name:    "empty content",
			item:    SearchResultItem{ID: "a", Type: ContentTypeNews},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidItem)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchResultItem_CloneIsDeep(t *testing.T) {
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	orig := SearchResultItem{
		ID:          "a",
		Breadcrumb:  []string{"home", "news"},
		PublishedAt: &published,
	}

	clone := orig.Clone()
	clone.Breadcrumb[0] = "changed"
	*clone.PublishedAt = published.Add(time.Hour)

	assert.Equal(t, "home", orig.Breadcrumb[0])
	assert.Equal(t, published, *orig.PublishedAt)
}

func TestSearchFilters_ParamsIgnoreConstructionOrder(t *testing.T) {
	a := SearchFilters{SortBy: SortByDate, Type: ContentTypeNews}
	b := SearchFilters{Type: ContentTypeNews, TimeRange: TimeRangeAll, SortBy: SortByDate}

	assert.Equal(t, a.Params(), b.Params())
	assert.Equal(t, map[string]string{
		"type":      "news",
		"timeRange": "all",
		"sortBy":    "date",
	}, a.Params())
}

func TestSearchFilters_CustomBoundsOnlyForCustomRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	week := SearchFilters{TimeRange: TimeRangeWeek, From: &from}
	assert.NotContains(t, week.Params(), "from")

	custom := SearchFilters{TimeRange: TimeRangeCustom, From: &from}
	assert.Equal(t, "2024-01-01T00:00:00Z", custom.Params()["from"])
}

func TestSearchFilters_Validate(t *testing.T) {
	assert.NoError(t, SearchFilters{}.Validate())
	assert.NoError(t, DefaultFilters().Validate())
	assert.ErrorIs(t, SearchFilters{Type: "blog"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, SearchFilters{TimeRange: "decade"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, SearchFilters{SortBy: "views"}.Validate(), ErrInvalidFilter)

	from := time.Now()
	to := from.Add(-time.Hour)
	assert.ErrorIs(t, SearchFilters{TimeRange: TimeRangeCustom, From: &from, To: &to}.Validate(), ErrInvalidFilter)
}

func TestTimeRange_Window(t *testing.T) {
	d, ok := TimeRangeQuarter.Window()
	require.True(t, ok)
	assert.Equal(t, 90*24*time.Hour, d)

	_, ok = TimeRangeAll.Window()
	assert.False(t, ok)
	_, ok = TimeRangeCustom.Window()
	assert.False(t, ok)
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("remote search: %w", &TransportError{Err: cause})

	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.ErrorIs(t, err, cause)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Retryable())
	assert.False(t, (&TransportError{StatusCode: 404, Err: cause}).Retryable())
	assert.Contains(t, (&TransportError{StatusCode: 503, Err: cause}).Error(), "status 503")
}

func TestSearchResponse_CloneAndValidate(t *testing.T) {
	resp := &SearchResponse{
		Results: []SearchResultItem{{ID: "a", Breadcrumb: []string{"x"}}},
		Total:   3,
		Query:   "q",
	}
	require.NoError(t, resp.Validate())

	clone := resp.Clone()
	clone.Results[0].Breadcrumb[0] = "y"
	assert.Equal(t, "x", resp.Results[0].Breadcrumb[0])

	bad := &SearchResponse{Results: make([]SearchResultItem, 2), Total: 1}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidResponse)

	assert.Nil(t, (*SearchResponse)(nil).Clone())
	empty := EmptyResponse("")
	assert.Empty(t, empty.Results)
	assert.NotNil(t, empty.Suggestions)
}
