package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for the ingestion pipeline.
type Metrics struct {
	// Ingest metrics
	IngestTotal      atomic.Int64
	IngestDuplicates atomic.Int64
	IngestFailed     atomic.Int64

	// Fetch metrics
	FetchTotal   atomic.Int64
	FetchRetries atomic.Int64
	FetchFailed  atomic.Int64

	// Cache metrics
	ContentCacheHits   atomic.Int64
	ContentCacheMisses atomic.Int64
	DedupCacheHits     atomic.Int64
	ListCacheHits      atomic.Int64

	// Storage metrics
	ArticlesStored   atomic.Int64
	ArticlesDeleted  atomic.Int64
	CorruptedSkipped atomic.Int64

	// Compression metrics
	BytesRaw        atomic.Int64
	BytesCompressed atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"stashgoat_ingest_total", "Total ingest requests", m.IngestTotal.Load()},
		{"stashgoat_ingest_duplicates_total", "Total ingests resolved from dedup", m.IngestDuplicates.Load()},
		{"stashgoat_ingest_failed_total", "Total failed ingests", m.IngestFailed.Load()},
		{"stashgoat_fetch_total", "Total fetch attempts", m.FetchTotal.Load()},
		{"stashgoat_fetch_retries_total", "Total fetch retries", m.FetchRetries.Load()},
		{"stashgoat_fetch_failed_total", "Total failed fetches", m.FetchFailed.Load()},
		{"stashgoat_content_cache_hits_total", "Content cache hits", m.ContentCacheHits.Load()},
		{"stashgoat_content_cache_misses_total", "Content cache misses", m.ContentCacheMisses.Load()},
		{"stashgoat_dedup_cache_hits_total", "Dedup cache hits", m.DedupCacheHits.Load()},
		{"stashgoat_list_cache_hits_total", "List cache hits", m.ListCacheHits.Load()},
		{"stashgoat_articles_stored_total", "Total articles stored", m.ArticlesStored.Load()},
		{"stashgoat_articles_deleted_total", "Total articles deleted", m.ArticlesDeleted.Load()},
		{"stashgoat_corrupted_skipped_total", "Corrupt articles skipped during listing", m.CorruptedSkipped.Load()},
		{"stashgoat_bytes_raw_total", "Total uncompressed article bytes", m.BytesRaw.Load()},
		{"stashgoat_bytes_compressed_total", "Total compressed article bytes", m.BytesCompressed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"ingest_total":         m.IngestTotal.Load(),
		"ingest_duplicates":    m.IngestDuplicates.Load(),
		"ingest_failed":        m.IngestFailed.Load(),
		"fetch_total":          m.FetchTotal.Load(),
		"fetch_retries":        m.FetchRetries.Load(),
		"fetch_failed":         m.FetchFailed.Load(),
		"content_cache_hits":   m.ContentCacheHits.Load(),
		"content_cache_misses": m.ContentCacheMisses.Load(),
		"dedup_cache_hits":     m.DedupCacheHits.Load(),
		"list_cache_hits":      m.ListCacheHits.Load(),
		"articles_stored":      m.ArticlesStored.Load(),
		"articles_deleted":     m.ArticlesDeleted.Load(),
		"corrupted_skipped":    m.CorruptedSkipped.Load(),
		"bytes_raw":            m.BytesRaw.Load(),
		"bytes_compressed":     m.BytesCompressed.Load(),
	}
}
