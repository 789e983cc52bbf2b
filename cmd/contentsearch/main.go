package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/contentsearch/internal/cache"
	"github.com/dshills/contentsearch/internal/client"
	"github.com/dshills/contentsearch/internal/config"
	"github.com/dshills/contentsearch/internal/history"
	"github.com/dshills/contentsearch/internal/indexer"
	"github.com/dshills/contentsearch/internal/mcp"
	"github.com/dshills/contentsearch/internal/monitor"
	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/internal/storage"
	"github.com/dshills/contentsearch/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("contentsearch MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("contentsearch starting",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("store", cfg.Store),
	)

	store, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	persistent := cache.NewPersistent[*types.SearchResponse](store, cache.PersistentConfig{
		DefaultTTL: cfg.PersistTTL,
		Logger:     logger.Named("persistent"),
	})
	if _, err := persistent.Cleanup(ctx); err != nil {
		logger.Warn("persistent cache cleanup failed", zap.Error(err))
	}

	loader := indexer.New(indexer.Config{Logger: logger.Named("loader")})
	engine := search.NewEngine(nil, search.EngineConfig{Locale: cfg.Locale, Logger: logger.Named("engine")})

	var contentPaths []string
	if cfg.ContentPath != "" {
		contentPaths = []string{cfg.ContentPath}
		if _, err := loader.Rebuild(ctx, engine, contentPaths...); err != nil {
			return fmt.Errorf("failed to load content: %w", err)
		}
	} else {
		logger.Warn("no content path configured, local index is empty")
	}

	// Without a remote endpoint the local engine answers directly; with one
	// it stands by as the fallback
	local := client.NewLocalTransport(engine)
	var transport, fallback client.Transport = local, nil
	if cfg.RemoteURL != "" {
		remote, err := client.NewHTTPTransport(client.HTTPConfig{
			BaseURL:   cfg.RemoteURL,
			Timeout:   cfg.RemoteTimeout,
			RateLimit: cfg.RemoteRPS,
			Logger:    logger.Named("http"),
		})
		if err != nil {
			return fmt.Errorf("failed to create remote transport: %w", err)
		}
		transport, fallback = remote, local
	}

	memCache := cache.New[*types.SearchResponse](cache.Config{
		MaxSize:       cfg.CacheMaxSize,
		DefaultTTL:    cfg.CacheTTL,
		SweepInterval: cfg.SweepInterval,
		Logger:        logger.Named("cache"),
	})
	defer memCache.Close()

	hist := history.New(store, history.DefaultMaxItems, logger.Named("history"))
	mon := monitor.New()

	searchClient := client.New(transport, client.Options{
		Cache:      memCache,
		Persistent: persistent,
		Monitor:    mon,
		Fallback:   fallback,
		History:    hist,
		Logger:     logger.Named("client"),
	})
	defer searchClient.Close()

	server, err := mcp.NewServer(mcp.Deps{
		Client:       searchClient,
		Engine:       engine,
		Loader:       loader,
		History:      hist,
		Preferences:  history.NewPreferenceStore(store, logger.Named("preferences")),
		ContentPaths: contentPaths,
		Logger:       logger.Named("mcp"),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Stdin closing ends the session, which stops everything else
		defer stop()
		return server.Serve(gctx)
	})

	if cfg.MetricsAddr != "" {
		metricsServer := newMetricsServer(cfg.MetricsAddr, mon)
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// newMetricsServer exposes the search monitor and Go runtime metrics
func newMetricsServer(addr string, mon *monitor.Monitor) *http.Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		mon,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
