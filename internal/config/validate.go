package config

import (
	"fmt"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.BackoffBase <= 0 {
		return fmt.Errorf("fetcher.backoff_base must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Extractor.MaxTextLength < 1 {
		return fmt.Errorf("extractor.max_text_length must be >= 1, got %d", cfg.Extractor.MaxTextLength)
	}
	if cfg.Summary.MaxLength < 1 {
		return fmt.Errorf("summary.max_length must be >= 1, got %d", cfg.Summary.MaxLength)
	}
	if cfg.Summary.TopSentences < 1 {
		return fmt.Errorf("summary.top_sentences must be >= 1, got %d", cfg.Summary.TopSentences)
	}

	if cfg.Cache.ContentSize < 1 {
		return fmt.Errorf("cache.content_size must be >= 1, got %d", cfg.Cache.ContentSize)
	}
	if cfg.Cache.ContentTTL <= 0 {
		return fmt.Errorf("cache.content_ttl must be > 0")
	}
	if cfg.Cache.DedupSize < 1 {
		return fmt.Errorf("cache.dedup_size must be >= 1, got %d", cfg.Cache.DedupSize)
	}
	if cfg.Cache.DedupTTL <= 0 {
		return fmt.Errorf("cache.dedup_ttl must be > 0")
	}

	if cfg.Storage.Type != "sqlite" && cfg.Storage.Type != "mongodb" {
		return fmt.Errorf("storage.type must be 'sqlite' or 'mongodb', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.PoolSize < 1 {
		return fmt.Errorf("storage.pool_size must be >= 1, got %d", cfg.Storage.PoolSize)
	}
	if cfg.Storage.PageSize < 1 {
		return fmt.Errorf("storage.page_size must be >= 1, got %d", cfg.Storage.PageSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
