// Package indexer loads site content into the local search index.
//
// Content lives in JSON or YAML files, each holding a list of documents:
//
//	- id: news-2024-001
//	  type: news
//	  title: 碳中和路线图发布
//	  excerpt: 公司发布2030碳中和路线图
//	  content: ...
//	  url: /news/2024/carbon-roadmap
//	  breadcrumb: [首页, 新闻]
//	  publishedAt: 2024-03-01T08:00:00Z
//
// # Basic Usage
//
//	loader := indexer.New(indexer.Config{Logger: logger})
//
//	idx, stats, err := loader.LoadDir(ctx, "content/")
//	if err != nil {
//	    return err
//	}
//	engine := search.NewEngine(idx, search.EngineConfig{})
//
//	fmt.Printf("Loaded %d documents from %d files in %v\n",
//	    stats.Documents, stats.FilesLoaded, stats.Duration)
//
// # Loading
//
// Files are read concurrently with a bounded errgroup. Directories are
// walked in lexical order and hidden directories are skipped. Documents are
// merged in argument order, then file order, so rebuilding from the same
// files always gives the same index order and the same tie-breaks.
//
// Any unreadable file, undecodable file, invalid document or duplicate id
// fails the whole load. There is no partial index.
//
// # Rebuilds
//
// Rebuild loads a fresh index and swaps it into a running engine. Searches
// in flight finish on the old index. A second Rebuild while one is running
// returns ErrRebuildInProgress immediately instead of queueing.
//
// Statistics.ContentHash fingerprints the loaded bytes, so callers can tell
// whether a reload actually changed anything.
package indexer
