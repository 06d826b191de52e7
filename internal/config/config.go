package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for StashGoat.
type Config struct {
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Summary   SummaryConfig   `mapstructure:"summary"   yaml:"summary"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"      yaml:"backoff_base"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	PerHostRPS      float64       `mapstructure:"per_host_rps"      yaml:"per_host_rps"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
}

// ExtractorConfig controls HTML content extraction.
type ExtractorConfig struct {
	MaxTextLength  int `mapstructure:"max_text_length"  yaml:"max_text_length"`
	MinBodyLength  int `mapstructure:"min_body_length"  yaml:"min_body_length"`
	MaxTitleLength int `mapstructure:"max_title_length" yaml:"max_title_length"`
}

// SummaryConfig controls the extractive summarizer.
type SummaryConfig struct {
	MaxLength    int `mapstructure:"max_length"    yaml:"max_length"`
	TopSentences int `mapstructure:"top_sentences" yaml:"top_sentences"`
}

// CacheConfig controls the in-memory caches. Content holds extraction
// results; Dedup is the lighter "already processed" URL cache.
type CacheConfig struct {
	ContentSize int           `mapstructure:"content_size" yaml:"content_size"`
	ContentTTL  time.Duration `mapstructure:"content_ttl"  yaml:"content_ttl"`
	DedupSize   int           `mapstructure:"dedup_size"   yaml:"dedup_size"`
	DedupTTL    time.Duration `mapstructure:"dedup_ttl"    yaml:"dedup_ttl"`
}

// StorageConfig controls the persistence backend.
type StorageConfig struct {
	Type     string `mapstructure:"type"      yaml:"type"` // sqlite, mongodb
	DBPath   string `mapstructure:"db_path"   yaml:"db_path"`
	MongoURI string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDB  string `mapstructure:"mongo_db"  yaml:"mongo_db"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// APIConfig controls the HTTP front-end.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			RequestTimeout:  10 * time.Second,
			MaxRetries:      3,
			BackoffBase:     1 * time.Second,
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			FollowRedirects: true,
			MaxRedirects:    10,
			PerHostRPS:      0, // unlimited
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Extractor: ExtractorConfig{
			MaxTextLength:  10000,
			MinBodyLength:  100,
			MaxTitleLength: 200,
		},
		Summary: SummaryConfig{
			MaxLength:    300,
			TopSentences: 3,
		},
		Cache: CacheConfig{
			ContentSize: 1000,
			ContentTTL:  1 * time.Hour,
			DedupSize:   500,
			DedupTTL:    2 * time.Hour,
		},
		Storage: StorageConfig{
			Type:     "sqlite",
			DBPath:   "./data/stashgoat.db",
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "stashgoat",
			PoolSize: 10,
			PageSize: 20,
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
