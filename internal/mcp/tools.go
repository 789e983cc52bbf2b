package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/contentsearch/internal/client"
	"github.com/dshills/contentsearch/internal/history"
	"github.com/dshills/contentsearch/internal/indexer"
	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams       = -32602 // Invalid method parameters
	ErrorCodeInternalError       = -32603 // Internal JSON-RPC error
	ErrorCodeContentNotFound     = -32001 // Content path holds no content files
	ErrorCodeRebuildInProgress   = -32002 // Another reload is already running
	ErrorCodeSearchUnavailable   = -32003 // Remote search failed and no fallback answered
	ErrorCodeEmptyQuery          = -32004 // Query parameter is empty
	ErrorCodeHistoryNotAvailable = -32005 // Search history or preferences are not configured
)

// handleSearchContent handles the search_content tool invocation
func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	prefs := s.preferences(ctx)

	limit := getIntDefault(args, "limit", prefs.PageSize)
	if limit < 1 || limit > search.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset cannot be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	filters, err := parseFilters(args, prefs.Filters)
	if err != nil {
		return nil, err
	}

	req := client.Request{Query: query, Filters: filters, Limit: limit, Offset: offset}

	var (
		resp     *types.SearchResponse
		fellBack bool
	)
	if getBoolDefault(args, "fallback", true) {
		resp, fellBack, err = s.client.SearchWithFallback(ctx, req)
	} else {
		resp, err = s.client.Search(ctx, req)
	}
	if errors.Is(err, types.ErrSearchUnavailable) {
		return nil, newMCPError(ErrorCodeSearchUnavailable, "search service unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":       resp.Query,
		"total":       resp.Total,
		"took_ms":     resp.Took,
		"results":     resp.Results,
		"suggestions": resp.Suggestions,
		"fallback":    fellBack,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSearchStats handles the get_search_stats tool invocation
func (s *Server) handleGetSearchStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.client.Stats()
	idx := s.engine.Index()

	byType := make(map[string]int)
	for ct, n := range idx.CountByType() {
		byType[string(ct)] = n
	}

	index := map[string]interface{}{
		"documents": idx.Len(),
		"by_type":   byType,
	}
	if built := idx.BuiltAt(); !built.IsZero() {
		index["built_at"] = built.Format(time.RFC3339)
	}
	if s.loader != nil {
		index["rebuilding"] = s.loader.Rebuilding()
	}

	response := map[string]interface{}{
		"performance": map[string]interface{}{
			"total_searches":       stats.TotalSearches,
			"avg_response_time_ms": stats.AvgResponseTime,
			"cache_hit_rate":       stats.CacheHitRate,
			"error_rate":           stats.ErrorRate,
		},
		"cache": map[string]interface{}{
			"entries": s.client.CacheLen(),
		},
		"index": index,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearSearchCache handles the clear_search_cache tool invocation
func (s *Server) handleClearSearchCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// No arguments is valid here
	args, _ := request.Params.Arguments.(map[string]interface{})

	cleared := s.client.CacheLen()
	if err := s.client.ClearCache(ctx); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to clear cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	resetStats := getBoolDefault(args, "reset_stats", false)
	if resetStats {
		s.client.Monitor().Reset()
	}

	s.logger.Info("search cache cleared", zap.Int("memory_entries", cleared), zap.Bool("reset_stats", resetStats))

	response := map[string]interface{}{
		"cleared":        true,
		"memory_entries": cleared,
		"stats_reset":    resetStats,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSearchHistory handles the get_search_history tool invocation
func (s *Server) handleGetSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.history == nil {
		return nil, newMCPError(ErrorCodeHistoryNotAvailable, "search history is not enabled", nil)
	}
	args, _ := request.Params.Arguments.(map[string]interface{})

	queries := s.history.List(ctx)
	clearAfter := getBoolDefault(args, "clear", false)
	if clearAfter {
		if err := s.history.Clear(ctx); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to clear history", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"queries":     queries,
		"count":       len(queries),
		"cleared":     clearAfter,
		"preferences": s.preferences(ctx),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSaveSearchPreferences handles the save_search_preferences tool invocation
func (s *Server) handleSaveSearchPreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.prefs == nil {
		return nil, newMCPError(ErrorCodeHistoryNotAvailable, "search preferences are not enabled", nil)
	}
	args, _ := request.Params.Arguments.(map[string]interface{})

	pageSize := getIntDefault(args, "page_size", search.DefaultLimit)
	if pageSize < 1 || pageSize > search.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "page_size must be between 1 and 100", map[string]interface{}{
			"param": "page_size",
			"value": pageSize,
		})
	}

	filters, err := parseFilters(args, types.DefaultFilters())
	if err != nil {
		return nil, err
	}

	prefs := history.Preferences{Filters: filters, PageSize: pageSize}
	if err := s.prefs.Save(ctx, prefs); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save preferences", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"saved":       true,
		"preferences": s.prefs.Load(ctx),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReloadContent handles the reload_content tool invocation
func (s *Server) handleReloadContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.loader == nil {
		return nil, newMCPError(ErrorCodeInternalError, "content loader is not configured", nil)
	}
	args, _ := request.Params.Arguments.(map[string]interface{})

	paths := s.contentPaths
	if path := getStringDefault(args, "path", ""); path != "" {
		paths = []string{path}
	}
	if len(paths) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "no content path configured",
		})
	}

	stats, err := s.loader.Rebuild(ctx, s.engine, paths...)
	switch {
	case errors.Is(err, indexer.ErrRebuildInProgress):
		return nil, newMCPError(ErrorCodeRebuildInProgress, "content reload already in progress", nil)
	case errors.Is(err, indexer.ErrNoContent):
		return nil, newMCPError(ErrorCodeContentNotFound, "no content files found", map[string]interface{}{
			"paths": paths,
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "content reload failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cached answers were computed against the old index
	if err := s.client.ClearCache(ctx); err != nil {
		s.logger.Warn("failed to clear cache after reload", zap.Error(err))
	}

	byType := make(map[string]int, len(stats.ByType))
	for ct, n := range stats.ByType {
		byType[string(ct)] = n
	}

	response := map[string]interface{}{
		"reloaded":     true,
		"files_loaded": stats.FilesLoaded,
		"documents":    stats.Documents,
		"by_type":      byType,
		"content_hash": stats.ContentHash,
		"duration_ms":  stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// parseFilters reads and validates filter arguments; absent ones come from defaults
func parseFilters(args map[string]interface{}, defaults types.SearchFilters) (types.SearchFilters, error) {
	filters := types.SearchFilters{
		Type:      types.ContentType(getStringDefault(args, "type", string(defaults.Type))),
		TimeRange: types.TimeRange(getStringDefault(args, "time_range", string(defaults.TimeRange))),
		SortBy:    types.SortBy(getStringDefault(args, "sort_by", string(defaults.SortBy))),
		From:      defaults.From,
		To:        defaults.To,
	}

	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"from", &filters.From},
		{"to", &filters.To},
	} {
		raw := getStringDefault(args, bound.param, "")
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, newMCPError(ErrorCodeInvalidParams, "invalid "+bound.param+" timestamp", map[string]interface{}{
				"param":  bound.param,
				"value":  raw,
				"reason": err.Error(),
			})
		}
		*bound.dst = &t
	}

	if err := filters.Validate(); err != nil {
		return filters, newMCPError(ErrorCodeInvalidParams, "invalid filters", map[string]interface{}{
			"reason":  err.Error(),
			"allowed": map[string][]string{"type": contentTypeValues, "time_range": timeRangeValues, "sort_by": sortByValues},
		})
	}
	return filters, nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
