package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/pkg/types"
)

// ErrRebuildInProgress is returned when a rebuild is requested while
// another one is still running
var ErrRebuildInProgress = errors.New("content rebuild already in progress")

// ErrNoContent is returned when the given paths contain no content files
var ErrNoContent = errors.New("no content files found")

// Config contains configuration for the loader
type Config struct {
	Workers int // Concurrent file readers (default: runtime.NumCPU())
	Logger  *zap.Logger
}

// Statistics describes one load
type Statistics struct {
	FilesLoaded int
	Documents   int
	ByType      map[types.ContentType]int
	ContentHash string // SHA-256 over every file, in load order
	Duration    time.Duration
}

// Loader reads content documents from JSON and YAML files into a search
// index. A file holds a list of items.
type Loader struct {
	workers int
	logger  *zap.Logger
	lock    IndexLock
}

// New creates a Loader
func New(cfg Config) *Loader {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Loader{workers: cfg.Workers, logger: cfg.Logger}
}

// fileResult is what one reader goroutine produces
type fileResult struct {
	items []types.SearchResultItem
	hash  [32]byte
}

// Load reads every content file under paths and builds an index. Paths may
// be files or directories; items keep argument order, then file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*search.Index, *Statistics, error) {
	start := time.Now()

	files, err := l.resolve(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoContent, strings.Join(paths, ", "))
	}

	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, hash, err := readFile(file)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", file, err)
			}
			results[i] = fileResult{items: items, hash: hash}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []types.SearchResultItem
	digest := sha256.New()
	for _, r := range results {
		all = append(all, r.items...)
		digest.Write(r.hash[:])
	}

	idx, err := search.NewIndex(all)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build index: %w", err)
	}

	stats := &Statistics{
		FilesLoaded: len(files),
		Documents:   idx.Len(),
		ByType:      idx.CountByType(),
		ContentHash: hex.EncodeToString(digest.Sum(nil)),
		Duration:    time.Since(start),
	}

	l.logger.Info("content loaded",
		zap.Int("files", stats.FilesLoaded),
		zap.Int("documents", stats.Documents),
		zap.Duration("duration", stats.Duration),
	)

	return idx, stats, nil
}

// LoadDir loads every content file below dir
func (l *Loader) LoadDir(ctx context.Context, dir string) (*search.Index, *Statistics, error) {
	return l.Load(ctx, dir)
}

// Rebuild loads paths and swaps the result into engine. Only one rebuild
// runs at a time; a concurrent call fails with ErrRebuildInProgress and the
// engine keeps serving its current index on any failure.
func (l *Loader) Rebuild(ctx context.Context, engine *search.Engine, paths ...string) (*Statistics, error) {
	if !l.lock.TryAcquire() {
		return nil, ErrRebuildInProgress
	}
	defer l.lock.Release()

	idx, stats, err := l.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}

	engine.Replace(idx)
	return stats, nil
}

// Rebuilding reports whether a rebuild is running
func (l *Loader) Rebuilding() bool {
	return l.lock.Held()
}

// resolve expands directories into their content files
func (l *Loader) resolve(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := discoverFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to discover files in %s: %w", p, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// discoverFiles finds content files under root in lexical order
func discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if isContentFile(path) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// readFile decodes one content file and hashes its bytes
func readFile(path string) ([]types.SearchResultItem, [32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [32]byte{}, err
	}
	hash := sha256.Sum256(data)

	var items []types.SearchResultItem
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &items)
	default:
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, hash, fmt.Errorf("decode: %w", err)
	}

	return items, hash, nil
}
