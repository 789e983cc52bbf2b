package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/pkg/types"
)

var (
	contentTypeValues = contentTypeEnum()
	timeRangeValues   = []string{
		string(types.TimeRangeAll),
		string(types.TimeRangeWeek),
		string(types.TimeRangeMonth),
		string(types.TimeRangeQuarter),
		string(types.TimeRangeYear),
		string(types.TimeRangeCustom),
	}
	sortByValues = []string{
		string(types.SortByRelevance),
		string(types.SortByDate),
		string(types.SortByTitle),
	}
)

func contentTypeEnum() []string {
	values := []string{string(types.ContentTypeAll)}
	for _, ct := range types.ContentTypes {
		values = append(values, string(ct))
	}
	return values
}

// searchContentTool returns the tool definition for search_content
func searchContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_content",
		Description: "Fuzzy search over site content by title, content and excerpt through the cached search client",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search text",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one content type (default: saved preference)",
					"enum":        contentTypeValues,
				},
				"time_range": map[string]interface{}{
					"type":        "string",
					"description": "Only return documents published within this window (default: saved preference)",
					"enum":        timeRangeValues,
				},
				"from": map[string]interface{}{
					"type":        "string",
					"description": "RFC 3339 lower bound when time_range is custom",
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": "RFC 3339 upper bound when time_range is custom",
				},
				"sort_by": map[string]interface{}{
					"type":        "string",
					"description": "Result ordering (default: saved preference)",
					"enum":        sortByValues,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100, default: saved page size)",
					"minimum":     1,
					"maximum":     search.MaxLimit,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of ranked results to skip",
					"default":     0,
					"minimum":     0,
				},
				"fallback": map[string]interface{}{
					"type":        "boolean",
					"description": "Answer from the local index when the remote search service is unavailable",
					"default":     true,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getSearchStatsTool returns the tool definition for get_search_stats
func getSearchStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_search_stats",
		Description: "Report search performance counters, cache occupancy and index statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearSearchCacheTool returns the tool definition for clear_search_cache
func clearSearchCacheTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_search_cache",
		Description: "Drop every cached search result, in memory and on disk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"reset_stats": map[string]interface{}{
					"type":        "boolean",
					"description": "Also zero the performance counters",
					"default":     false,
				},
			},
		},
	}
}

// getSearchHistoryTool returns the tool definition for get_search_history
func getSearchHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_search_history",
		Description: "List recent search queries, most recent first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"clear": map[string]interface{}{
					"type":        "boolean",
					"description": "Clear the history after listing it",
					"default":     false,
				},
			},
		},
	}
}

// reloadContentTool returns the tool definition for reload_content
func reloadContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reload_content",
		Description: "Reload content files and atomically replace the local search index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Content file or directory; defaults to the configured content path",
				},
			},
		},
	}
}

// saveSearchPreferencesTool returns the tool definition for save_search_preferences
func saveSearchPreferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_search_preferences",
		Description: "Save the default filters and page size used by search_content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":    "string",
					"enum":    contentTypeValues,
					"default": string(types.ContentTypeAll),
				},
				"time_range": map[string]interface{}{
					"type":    "string",
					"enum":    timeRangeValues,
					"default": string(types.TimeRangeAll),
				},
				"sort_by": map[string]interface{}{
					"type":    "string",
					"enum":    sortByValues,
					"default": string(types.SortByRelevance),
				},
				"page_size": map[string]interface{}{
					"type":    "integer",
					"default": search.DefaultLimit,
					"minimum": 1,
					"maximum": search.MaxLimit,
				},
			},
		},
	}
}
