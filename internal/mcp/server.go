package mcp

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/contentsearch/internal/client"
	"github.com/dshills/contentsearch/internal/history"
	"github.com/dshills/contentsearch/internal/indexer"
	"github.com/dshills/contentsearch/internal/search"
)

const (
	// ServerName is the MCP server name
	ServerName = "contentsearch"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps are the application components the tools operate on. Client and
// Engine are required; History, Preferences and Loader enable their tools
// when set.
type Deps struct {
	Client       *client.Client
	Engine       *search.Engine
	Loader       *indexer.Loader
	History      *history.History
	Preferences  *history.PreferenceStore
	ContentPaths []string // Default paths for reload_content
	Logger       *zap.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp          *server.MCPServer
	client       *client.Client
	engine       *search.Engine
	loader       *indexer.Loader
	history      *history.History
	prefs        *history.PreferenceStore
	contentPaths []string
	logger       *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(deps Deps) (*Server, error) {
	if deps.Client == nil {
		return nil, errors.New("search client is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("search engine is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		mcp:          server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		client:       deps.Client,
		engine:       deps.Engine,
		loader:       deps.Loader,
		history:      deps.History,
		prefs:        deps.Preferences,
		contentPaths: deps.ContentPaths,
		logger:       deps.Logger,
	}

	s.registerTools()
	return s, nil
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen runs the MCP protocol over the given streams
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))

	s.logger.Info("MCP server listening", zap.String("name", ServerName), zap.String("version", ServerVersion))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// preferences returns the saved search defaults, or the built-in ones
func (s *Server) preferences(ctx context.Context) history.Preferences {
	if s.prefs == nil {
		return history.DefaultPreferences()
	}
	return s.prefs.Load(ctx)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchContentTool(), s.handleSearchContent)
	s.mcp.AddTool(getSearchStatsTool(), s.handleGetSearchStats)
	s.mcp.AddTool(clearSearchCacheTool(), s.handleClearSearchCache)
	s.mcp.AddTool(getSearchHistoryTool(), s.handleGetSearchHistory)
	s.mcp.AddTool(saveSearchPreferencesTool(), s.handleSaveSearchPreferences)
	s.mcp.AddTool(reloadContentTool(), s.handleReloadContent)
}
