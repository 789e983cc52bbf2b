package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/contentsearch/internal/search"
	"github.com/dshills/contentsearch/pkg/types"
)

const newsJSON = `[
  {"id": "news-1", "type": "news", "title": "碳中和路线图", "excerpt": "路线图", "content": "公司发布碳中和路线图",
   "url": "/news/1", "breadcrumb": ["首页", "新闻"], "publishedAt": "2024-03-01T08:00:00Z"},
  {"id": "news-2", "type": "news", "title": "储能项目", "content": "储能项目投产", "url": "/news/2"}
]`

const servicesYAML = `
- id: svc-1
  type: service
  title: Carbon accounting
  excerpt: Measure emissions
  content: We measure scope 1, 2 and 3 emissions.
  url: /services/carbon
  breadcrumb: [Home, Services]
- id: svc-2
  type: service
  title: Energy audit
  content: On-site energy audits.
  url: /services/audit
  publishedAt: 2024-01-15T00:00:00Z
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func itemIDs(idx *search.Index) []string {
	var out []string
	for _, it := range idx.Items() {
		out = append(out, it.ID)
	}
	return out
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "news.json", newsJSON)
	yamlPath := writeFile(t, dir, "services.yaml", servicesYAML)

	l := New(Config{Workers: 2})
	idx, stats, err := l.Load(context.Background(), yamlPath, jsonPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"svc-1", "svc-2", "news-1", "news-2"}, itemIDs(idx), "argument order is preserved")
	assert.Equal(t, 2, stats.FilesLoaded)
	assert.Equal(t, 4, stats.Documents)
	assert.Equal(t, 2, stats.ByType[types.ContentTypeNews])
	assert.Equal(t, 2, stats.ByType[types.ContentTypeService])
	assert.Len(t, stats.ContentHash, 64)

	news, ok := idx.Get("news-1")
	require.True(t, ok)
	require.NotNil(t, news.PublishedAt)
	assert.Equal(t, 2024, news.PublishedAt.Year())
	assert.Equal(t, []string{"首页", "新闻"}, news.Breadcrumb)

	svc, ok := idx.Get("svc-2")
	require.True(t, ok)
	require.NotNil(t, svc.PublishedAt, "YAML timestamps decode into PublishedAt")
	assert.Equal(t, 15, svc.PublishedAt.Day())
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/news.json", newsJSON)
	writeFile(t, dir, "a/services.yml", servicesYAML)
	writeFile(t, dir, ".drafts/hidden.json", `[{"id":"draft","type":"page","content":"x"}]`)
	writeFile(t, dir, "README.md", "not content")

	l := New(Config{})
	idx, stats, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesLoaded)
	assert.Equal(t, []string{"svc-1", "svc-2", "news-1", "news-2"}, itemIDs(idx), "files load in lexical order")

	_, ok := idx.Get("draft")
	assert.False(t, ok, "hidden directories are skipped")
}

func TestLoader_ContentHashIsStable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.json", newsJSON)
	l := New(Config{})

	_, first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	_, second, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first.ContentHash, second.ContentHash)

	writeFile(t, dir, "news.json", newsJSON+"\n")
	_, third, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotEqual(t, first.ContentHash, third.ContentHash)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:  "MalformedJSON",
			files: map[string]string{"bad.json": `[{"id": `},
		},
		{
			name:  "MalformedYAML",
			files: map[string]string{"bad.yaml": "- id: [unterminated"},
		},
		{
			name: "DuplicateAcrossFiles",
			files: map[string]string{
				"a.json": `[{"id":"same","type":"page","content":"a"}]`,
				"b.json": `[{"id":"same","type":"news","content":"b"}]`,
			},
			wantErr: types.ErrDuplicateID,
		},
		{
			name:    "InvalidItem",
			files:   map[string]string{"a.json": `[{"id":"x","type":"video","content":"a"}]`},
			wantErr: types.ErrInvalidItem,
		},
		{
			name:    "NoContentFiles",
			files:   map[string]string{"notes.txt": "hello"},
			wantErr: ErrNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			_, _, err := New(Config{}).LoadDir(context.Background(), dir)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoader_MissingPath(t *testing.T) {
	_, _, err := New(Config{}).Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.json", newsJSON)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(Config{}).Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_Rebuild(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.json", newsJSON)

	engine := search.NewEngine(nil, search.EngineConfig{})
	l := New(Config{})

	stats, err := l.Rebuild(context.Background(), engine, path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, engine.Index().Len())
	assert.False(t, l.Rebuilding())

	resp := engine.Search("储能", types.DefaultFilters(), search.Page{})
	assert.Equal(t, 1, resp.Total)

	// A failed rebuild leaves the current index in place
	writeFile(t, dir, "news.json", "{broken")
	_, err = l.Rebuild(context.Background(), engine, path)
	require.Error(t, err)
	assert.Equal(t, 2, engine.Index().Len())
}

func TestLoader_RebuildInProgress(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.json", newsJSON)
	engine := search.NewEngine(nil, search.EngineConfig{})
	l := New(Config{})

	require.True(t, l.lock.TryAcquire())
	assert.True(t, l.Rebuilding())

	_, err := l.Rebuild(context.Background(), engine, path)
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	l.lock.Release()
	_, err = l.Rebuild(context.Background(), engine, path)
	assert.NoError(t, err)
}

func TestIndexLock(t *testing.T) {
	var lock IndexLock
	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
}
