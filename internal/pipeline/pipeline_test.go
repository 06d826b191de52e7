package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/observability"
	"github.com/IshaanNene/StashGoat/internal/storage"
	"github.com/IshaanNene/StashGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const articleHTML = `<html>
<head><title>Go Compiler Internals</title></head>
<body>
<article>
<h1>Go Compiler Internals</h1>
<p>The compiler turns source files into machine code through several passes over the program.</p>
<p>Each pass runs a cheap analysis before the expensive software optimization that follows it, so broken programs fail fast.</p>
</article>
</body>
</html>`

// fakeFetcher serves canned HTML per URL and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
	err   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[url]
	if !ok {
		page = articleHTML
	}
	return []byte(page), nil
}

func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.Storage.PageSize = 2
	cfg.Extractor.MinBodyLength = 20
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, ff *fakeFetcher) *Pipeline {
	t.Helper()
	store, err := storage.New(&cfg.Storage, testLogger)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	p := New(cfg, store, observability.NewMetrics(testLogger), testLogger, WithFetcher(ff))
	t.Cleanup(func() { p.Close() })
	return p
}

func TestIngestStoresArticle(t *testing.T) {
	ff := newFakeFetcher()
	p := newTestPipeline(t, testConfig(t), ff)

	res, err := p.Ingest(context.Background(), "alice", "https://example.com/post")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !res.Created {
		t.Error("Ingest() Created = false, want true")
	}
	a := res.Article
	if a.ID == "" {
		t.Error("article ID empty")
	}
	if a.Title != "Go Compiler Internals" {
		t.Errorf("title = %q", a.Title)
	}
	if a.Summary == "" {
		t.Error("summary empty")
	}
	if a.Category != "technology" {
		t.Errorf("category = %q, want technology", a.Category)
	}
	if a.Language != "en" {
		t.Errorf("language = %q, want en", a.Language)
	}
	if len(a.BodyCompressed) == 0 {
		t.Error("compressed body empty")
	}

	_, body, err := p.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(body) == 0 {
		t.Error("decompressed body empty")
	}
}

func TestIngestIdempotent(t *testing.T) {
	ff := newFakeFetcher()
	p := newTestPipeline(t, testConfig(t), ff)
	ctx := context.Background()

	first, err := p.Ingest(ctx, "alice", "https://example.com/post")
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	// Same URL in a trivially different spelling.
	second, err := p.Ingest(ctx, "alice", "HTTPS://EXAMPLE.COM/post#section")
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if second.Created {
		t.Error("second Ingest() Created = true, want false")
	}
	if second.Article.ID != first.Article.ID {
		t.Errorf("second id = %q, want %q", second.Article.ID, first.Article.ID)
	}
	if got := ff.callCount("https://example.com/post"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestIngestCoalescesConcurrentSameURL(t *testing.T) {
	ff := newFakeFetcher()
	p := newTestPipeline(t, testConfig(t), ff)

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := p.Ingest(context.Background(), "alice", "https://example.com/post")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = res.Article.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Ingest(%d) error = %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("Ingest(%d) id = %q, want %q", i, ids[i], ids[0])
		}
	}
	if got := ff.callCount("https://example.com/post"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestIngestFetchFailureStoresNothing(t *testing.T) {
	ff := newFakeFetcher()
	ff.err = &types.FetchError{URL: "https://down.example.com/", Attempts: 4, Err: types.ErrFetchFailed}
	p := newTestPipeline(t, testConfig(t), ff)
	ctx := context.Background()

	_, err := p.Ingest(ctx, "alice", "https://down.example.com/")
	if !errors.Is(err, types.ErrFetchFailed) {
		t.Fatalf("Ingest() error = %v, want ErrFetchFailed", err)
	}
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Stage != string(StageFetching) {
		t.Errorf("error = %v, want PipelineError at fetching stage", err)
	}

	articles, _, err := p.List(ctx, "alice", "", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("List() returned %d articles after failed ingest, want 0", len(articles))
	}
}

func TestIngestInvalidURL(t *testing.T) {
	p := newTestPipeline(t, testConfig(t), newFakeFetcher())

	for _, raw := range []string{"", "not a url", "ftp://example.com/x", "http://"} {
		if _, err := p.Ingest(context.Background(), "alice", raw); !errors.Is(err, types.ErrInvalidURL) {
			t.Errorf("Ingest(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestContentCacheEvictionCausesRefetch(t *testing.T) {
	ff := newFakeFetcher()
	cfg := testConfig(t)
	cfg.Cache.ContentSize = 2
	p := newTestPipeline(t, cfg, ff)
	ctx := context.Background()

	urls := []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"}
	for _, u := range urls {
		if _, err := p.Ingest(ctx, "alice", u); err != nil {
			t.Fatalf("Ingest(%s) error = %v", u, err)
		}
	}

	// Delete the first article so its next ingest must go through the
	// content stage again; its cache slot was evicted by the third URL.
	first, err := p.store.GetByURL(ctx, "https://a.example.com/")
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if err := p.Delete(ctx, first.ID, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := p.Ingest(ctx, "alice", "https://a.example.com/"); err != nil {
		t.Fatalf("re-Ingest() error = %v", err)
	}
	if got := ff.callCount("https://a.example.com/"); got != 2 {
		t.Errorf("fetch count = %d, want 2 (evicted entry must be re-fetched)", got)
	}
}

func TestListSkipsCorruptRows(t *testing.T) {
	ff := newFakeFetcher()
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg, ff)
	ctx := context.Background()

	good, err := p.Ingest(ctx, "alice", "https://example.com/good")
	if err != nil {
		t.Fatalf("Ingest(good) error = %v", err)
	}
	bad, err := p.Ingest(ctx, "alice", "https://example.com/bad")
	if err != nil {
		t.Fatalf("Ingest(bad) error = %v", err)
	}

	// Damage one stored body behind the pipeline's back.
	db, err := sql.Open("sqlite3", cfg.Storage.DBPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE articles SET body_compressed = X'' WHERE id = ?`, bad.Article.ID); err != nil {
		t.Fatalf("corrupting row: %v", err)
	}

	articles, _, err := p.List(ctx, "alice", "", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("List() returned %d articles, want 1", len(articles))
	}
	if articles[0].ID != good.Article.ID {
		t.Errorf("listed article = %q, want %q", articles[0].ID, good.Article.ID)
	}
	if got := p.metrics.CorruptedSkipped.Load(); got != 1 {
		t.Errorf("corrupted skipped = %d, want 1", got)
	}
}

// gateFetcher blocks Fetch until released, so a test can cancel a
// caller while the fetch is in flight.
type gateFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func newGateFetcher() *gateFetcher {
	return &gateFetcher{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *gateFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	close(f.entered)
	select {
	case <-f.release:
		return []byte(articleHTML), nil
	case <-ctx.Done():
		return nil, &types.FetchError{Err: fmt.Errorf("%w: %v", types.ErrFetchFailed, ctx.Err())}
	}
}

func (f *gateFetcher) Close() error { return nil }

func TestIngestSurvivesInitiatorCancellation(t *testing.T) {
	gf := newGateFetcher()
	cfg := testConfig(t)
	store, err := storage.New(&cfg.Storage, testLogger)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	p := New(cfg, store, observability.NewMetrics(testLogger), testLogger, WithFetcher(gf))
	t.Cleanup(func() { p.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.Ingest(ctx, "alice", "https://example.com/post")
		done <- outcome{res, err}
	}()

	// Cancel the initiating caller mid-fetch, then let the fetch finish.
	<-gf.entered
	cancel()
	close(gf.release)

	got := <-done
	if got.err != nil {
		t.Fatalf("Ingest() error = %v, want the completed article", got.err)
	}
	if !got.res.Created {
		t.Error("Ingest() Created = false, want true")
	}

	// The ingest ran to completion and persisted despite the cancel.
	if _, err := p.store.GetByURL(context.Background(), "https://example.com/post"); err != nil {
		t.Errorf("GetByURL() after cancelled ingest error = %v", err)
	}
}

func TestListPaginationOrder(t *testing.T) {
	ff := newFakeFetcher()
	p := newTestPipeline(t, testConfig(t), ff)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		res, err := p.Ingest(ctx, "alice", fmt.Sprintf("https://example.com/%d", i))
		if err != nil {
			t.Fatalf("Ingest(%d) error = %v", i, err)
		}
		ids = append(ids, res.Article.ID)
	}

	var got []string
	for page := 0; ; page++ {
		articles, hasMore, err := p.List(ctx, "alice", "", page)
		if err != nil {
			t.Fatalf("List(page %d) error = %v", page, err)
		}
		for _, a := range articles {
			got = append(got, a.ID)
		}
		if !hasMore {
			break
		}
	}

	if len(got) != len(ids) {
		t.Fatalf("listed %d articles, want %d", len(got), len(ids))
	}
	seen := map[string]bool{}
	for _, id := range got {
		if seen[id] {
			t.Errorf("article %s listed twice", id)
		}
		seen[id] = true
	}
}

func TestDeleteRemovesFromListing(t *testing.T) {
	ff := newFakeFetcher()
	p := newTestPipeline(t, testConfig(t), ff)
	ctx := context.Background()

	res, err := p.Ingest(ctx, "alice", "https://example.com/post")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	// Prime the list cache, then delete; the cached page must not
	// survive the write.
	if _, _, err := p.List(ctx, "alice", "", 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if err := p.Delete(ctx, res.Article.ID, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	articles, _, err := p.List(ctx, "alice", "", 0)
	if err != nil {
		t.Fatalf("List() after delete error = %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("List() returned %d articles after delete, want 0", len(articles))
	}

	if err := p.Delete(ctx, res.Article.ID, "alice"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/Path", "https://example.com/Path"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com/a/", "https://example.com/a"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{"https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"https://example.com", "https://example.com/"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeURL(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
