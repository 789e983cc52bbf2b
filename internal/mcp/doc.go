// Package mcp implements the Model Context Protocol (MCP) server for contentsearch.
//
// The server exposes six tools to MCP clients:
//   - search_content: Fuzzy search over the indexed site content
//   - get_search_stats: Performance counters, cache size and index statistics
//   - clear_search_cache: Drop cached results in memory and on disk
//   - get_search_history: Recent queries, newest first, plus saved preferences
//   - save_search_preferences: Default filters and page size for search_content
//   - reload_content: Reload content files and swap the local index
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only; logs go to stderr or a log file.
//
// # Tool: search_content
//
//	Request:
//	{
//	  "name": "search_content",
//	  "arguments": {
//	    "query": "碳中和",
//	    "type": "news",
//	    "time_range": "year",
//	    "sort_by": "relevance",
//	    "limit": 10,
//	    "offset": 0,
//	    "fallback": true
//	  }
//	}
//
//	Response:
//	{
//	  "query": "碳中和",
//	  "total": 3,
//	  "took_ms": 2,
//	  "fallback": false,
//	  "results": [{"id": "news-12", "type": "news", "title": "...", ...}],
//	  "suggestions": [...]
//	}
//
// With fallback enabled, an unavailable remote search service is answered
// from the local index and "fallback" is true. Fallback answers are not cached.
//
// # Error Handling
//
// Handlers return *MCPError values which the framework encodes as JSON-RPC
// errors:
//   - -32602: Invalid params (bad limit, unknown filter value, bad timestamp)
//   - -32603: Internal error
//   - -32001: No content files at the reload path
//   - -32002: Content reload already in progress
//   - -32003: Search service unavailable and no fallback answered
//   - -32004: Empty query
//   - -32005: Search history or preferences not configured
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "contentsearch": {
//	      "command": "/usr/local/bin/contentsearch",
//	      "env": {
//	        "CONTENTSEARCH_CONTENT_PATH": "/srv/site/content",
//	        "CONTENTSEARCH_REMOTE_URL": "https://example.com/api/search"
//	      }
//	    }
//	  }
//	}
package mcp
