// Package pipeline orchestrates a URL ingest: normalize, dedup, fetch,
// extract, enrich, compress, persist. Concurrent ingests of the same
// URL are coalesced into one execution and every caller observes the
// same stored article.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/IshaanNene/StashGoat/internal/cache"
	"github.com/IshaanNene/StashGoat/internal/categorize"
	"github.com/IshaanNene/StashGoat/internal/compress"
	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/extractor"
	"github.com/IshaanNene/StashGoat/internal/fetcher"
	"github.com/IshaanNene/StashGoat/internal/observability"
	"github.com/IshaanNene/StashGoat/internal/storage"
	"github.com/IshaanNene/StashGoat/internal/summarize"
	"github.com/IshaanNene/StashGoat/internal/types"
)

// Stage names an ingest phase for error reporting and logs.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageCacheCheck  Stage = "cache_check"
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageEnriching   Stage = "enriching"
	StageCompressing Stage = "compressing"
	StagePersisting  Stage = "persisting"
)

// Result is the outcome of one ingest.
type Result struct {
	Article *types.Article
	// Created is false when the URL deduplicated to an existing article.
	Created bool
}

// Pipeline wires the ingest stages together.
type Pipeline struct {
	cfg        *config.Config
	fetcher    fetcher.Fetcher
	extractor  *extractor.Extractor
	summarizer *summarize.Summarizer
	store      storage.Store
	cache      *cache.Cache
	metrics    *observability.Metrics
	logger     *slog.Logger

	group singleflight.Group
}

// Option overrides a pipeline component.
type Option func(*Pipeline)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// New builds a pipeline on the given store.
func New(cfg *config.Config, store storage.Store, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher.NewHTTPFetcher(&cfg.Fetcher, metrics, logger),
		extractor:  extractor.New(&cfg.Extractor, logger),
		summarizer: summarize.New(cfg.Summary.TopSentences),
		store:      store,
		cache: cache.New(cache.Options{
			ContentSize: cfg.Cache.ContentSize,
			ContentTTL:  cfg.Cache.ContentTTL,
			DedupSize:   cfg.Cache.DedupSize,
			DedupTTL:    cfg.Cache.DedupTTL,
		}, logger),
		metrics: metrics,
		logger:  logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes a submitted URL for an owner. A URL that already
// resolved to a stored article returns that article with Created false;
// nothing is persisted when any stage fails.
func (p *Pipeline) Ingest(ctx context.Context, ownerID, rawURL string) (*Result, error) {
	p.metrics.IngestTotal.Add(1)

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		p.metrics.IngestFailed.Add(1)
		return nil, &types.PipelineError{Stage: string(StageValidating), URL: rawURL, Err: err}
	}

	// The coalesced execution must not die with whichever caller
	// happened to start it; each fetch attempt still carries its own
	// timeout, so the detached run stays bounded.
	execCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(normalized, func() (any, error) {
		return p.ingest(execCtx, ownerID, normalized)
	})
	if err != nil {
		p.metrics.IngestFailed.Add(1)
		return nil, err
	}
	return v.(*Result), nil
}

func (p *Pipeline) ingest(ctx context.Context, ownerID, url string) (*Result, error) {
	log := p.logger.With("url", url, "owner", ownerID)

	// Dedup cache first, then the authoritative unique index.
	if id, ok := p.cache.GetProcessed(url); ok {
		a, err := p.store.GetByID(ctx, id)
		if err == nil {
			p.metrics.DedupCacheHits.Add(1)
			p.metrics.IngestDuplicates.Add(1)
			log.Debug("ingest resolved from dedup cache", "article_id", a.ID)
			return &Result{Article: a}, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, &types.PipelineError{Stage: string(StageCacheCheck), URL: url, Err: err}
		}
		// Stale entry, the article was deleted.
		p.cache.Invalidate(url)
	}

	if a, err := p.store.GetByURL(ctx, url); err == nil {
		p.cache.MarkProcessed(url, a.ID)
		p.metrics.IngestDuplicates.Add(1)
		log.Debug("ingest resolved from storage", "article_id", a.ID)
		return &Result{Article: a}, nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, &types.PipelineError{Stage: string(StageCacheCheck), URL: url, Err: err}
	}

	content, err := p.obtainContent(ctx, url)
	if err != nil {
		return nil, err
	}

	// Summary and category are independent, run them together.
	var summary string
	var category categorize.Category
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = p.summarizer.Summarize(content.Body, p.cfg.Summary.MaxLength)
		return nil
	})
	g.Go(func() error {
		category = categorize.Categorize(content.Title, content.Body)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &types.PipelineError{Stage: string(StageEnriching), URL: url, Err: err}
	}

	body, err := compress.Compress(content.Body)
	if err != nil {
		return nil, &types.PipelineError{Stage: string(StageCompressing), URL: url, Err: err}
	}
	p.metrics.BytesRaw.Add(int64(len(content.Body)))
	p.metrics.BytesCompressed.Add(int64(len(body)))

	article := &types.Article{
		URL:            url,
		OwnerID:        ownerID,
		Title:          content.Title,
		Summary:        summary,
		Category:       string(category),
		Language:       content.Language,
		BodyCompressed: body,
	}

	id, created, err := p.store.Upsert(ctx, article)
	if err != nil {
		return nil, &types.PipelineError{Stage: string(StagePersisting), URL: url, Err: err}
	}
	p.cache.MarkProcessed(url, id)

	if !created {
		// A concurrent writer on another instance got there first.
		existing, err := p.store.GetByID(ctx, id)
		if err != nil {
			return nil, &types.PipelineError{Stage: string(StagePersisting), URL: url, Err: err}
		}
		p.metrics.IngestDuplicates.Add(1)
		return &Result{Article: existing}, nil
	}

	article.ID = id
	p.metrics.ArticlesStored.Add(1)
	p.cache.InvalidateOwner(ownerID)
	log.Info("article ingested",
		"article_id", id,
		"category", article.Category,
		"language", article.Language,
		"compressed_bytes", len(body))
	return &Result{Article: article, Created: true}, nil
}

// obtainContent returns extracted content for a URL, fetching and
// extracting only on a content cache miss.
func (p *Pipeline) obtainContent(ctx context.Context, url string) (*types.ExtractedContent, error) {
	if content, ok := p.cache.GetContent(url); ok {
		p.metrics.ContentCacheHits.Add(1)
		return content, nil
	}
	p.metrics.ContentCacheMisses.Add(1)

	p.metrics.FetchTotal.Add(1)
	raw, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.metrics.FetchFailed.Add(1)
		return nil, &types.PipelineError{Stage: string(StageFetching), URL: url, Err: err}
	}

	content, err := p.extractor.Extract(raw)
	if err != nil {
		return nil, &types.PipelineError{Stage: string(StageExtracting), URL: url, Err: err}
	}

	p.cache.PutContent(url, content)
	return content, nil
}

// List returns one page of an owner's articles, newest first. Rows
// whose compressed body no longer decompresses are skipped with a
// warning rather than failing the whole page.
func (p *Pipeline) List(ctx context.Context, ownerID, category string, page int) ([]types.Article, bool, error) {
	if page < 0 {
		page = 0
	}

	if lp, ok := p.cache.GetList(ownerID, category, page); ok {
		p.metrics.ListCacheHits.Add(1)
		return lp.Articles, lp.HasMore, nil
	}

	pageSize := p.cfg.Storage.PageSize
	articles, next, err := p.store.List(ctx, storage.ListQuery{
		OwnerID:   ownerID,
		Category:  category,
		PageSize:  pageSize,
		PageToken: storage.PageTokenForOffset(page * pageSize),
	})
	if err != nil {
		return nil, false, err
	}

	valid := articles[:0]
	for _, a := range articles {
		if _, err := compress.Decompress(a.BodyCompressed); err != nil {
			p.metrics.CorruptedSkipped.Add(1)
			p.logger.Warn("skipping corrupt article", "article_id", a.ID, "url", a.URL, "error", err)
			continue
		}
		valid = append(valid, a)
	}

	hasMore := next != ""
	p.cache.PutList(ownerID, category, page, &cache.ListPage{Articles: valid, HasMore: hasMore})
	return valid, hasMore, nil
}

// Get returns a stored article with its decompressed body text.
func (p *Pipeline) Get(ctx context.Context, id string) (*types.Article, string, error) {
	a, err := p.store.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	body, err := compress.Decompress(a.BodyCompressed)
	if err != nil {
		return nil, "", fmt.Errorf("article %s: %w", id, err)
	}
	return a, body, nil
}

// Delete removes an owner's article and drops the caches that could
// still serve it.
func (p *Pipeline) Delete(ctx context.Context, id, ownerID string) error {
	a, err := p.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	p.metrics.ArticlesDeleted.Add(1)
	p.cache.Invalidate(a.URL)
	p.cache.InvalidateOwner(ownerID)
	p.logger.Info("article deleted", "article_id", id, "owner", ownerID)
	return nil
}

// Export writes all of an owner's articles through the exporter,
// paging the store and decompressing bodies as it goes. Corrupt rows
// are skipped the same way List skips them.
func (p *Pipeline) Export(ctx context.Context, ownerID, category string, exp storage.Exporter) (int, error) {
	exported := 0
	token := ""
	for {
		articles, next, err := p.store.List(ctx, storage.ListQuery{
			OwnerID:   ownerID,
			Category:  category,
			PageSize:  p.cfg.Storage.PageSize,
			PageToken: token,
		})
		if err != nil {
			return exported, err
		}

		records := make([]storage.ExportRecord, 0, len(articles))
		for _, a := range articles {
			body, err := compress.Decompress(a.BodyCompressed)
			if err != nil {
				p.metrics.CorruptedSkipped.Add(1)
				p.logger.Warn("skipping corrupt article", "article_id", a.ID, "url", a.URL, "error", err)
				continue
			}
			records = append(records, storage.ExportRecord{
				ID:        a.ID,
				URL:       a.URL,
				OwnerID:   a.OwnerID,
				Title:     a.Title,
				Summary:   a.Summary,
				Category:  a.Category,
				Language:  a.Language,
				Body:      body,
				CreatedAt: a.CreatedAt,
			})
		}
		if err := exp.Export(records); err != nil {
			return exported, err
		}
		exported += len(records)

		if next == "" {
			return exported, nil
		}
		token = next
	}
}

// Stats reports pipeline counters and cache occupancy.
func (p *Pipeline) Stats() map[string]int64 {
	stats := p.metrics.Snapshot()
	stats["content_cache_entries"] = int64(p.cache.ContentLen())
	stats["dedup_cache_entries"] = int64(p.cache.DedupLen())
	return stats
}

// Close releases the fetcher and the storage backend.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.fetcher.Close(); err != nil {
		firstErr = err
	}
	if err := p.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
