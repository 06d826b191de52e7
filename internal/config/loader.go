package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("STASHGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("stashgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".stashgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applySecondsEnv(cfg)

	return cfg, nil
}

// bindLegacyEnv binds the unprefixed environment variables the original
// deployment used.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("cache.content_size", "CACHE_SIZE")
	_ = v.BindEnv("extractor.max_text_length", "MAX_TEXT_LENGTH")
	_ = v.BindEnv("summary.max_length", "MAX_SUMMARY_LENGTH")
	_ = v.BindEnv("fetcher.max_retries", "MAX_RETRIES")
	_ = v.BindEnv("storage.db_path", "DB_PATH")
	_ = v.BindEnv("storage.pool_size", "POOL_SIZE")
}

// applySecondsEnv handles CACHE_TTL and REQUEST_TIMEOUT, which the
// original deployment sets as plain integer seconds. A Go duration
// string ("90s", "2h") is accepted too.
func applySecondsEnv(cfg *Config) {
	if d, ok := envDuration("CACHE_TTL"); ok {
		cfg.Cache.ContentTTL = d
	}
	if d, ok := envDuration("REQUEST_TIMEOUT"); ok {
		cfg.Fetcher.RequestTimeout = d
	}
}

func envDuration(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	return 0, false
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.backoff_base", cfg.Fetcher.BackoffBase)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.per_host_rps", cfg.Fetcher.PerHostRPS)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)

	v.SetDefault("extractor.max_text_length", cfg.Extractor.MaxTextLength)
	v.SetDefault("extractor.min_body_length", cfg.Extractor.MinBodyLength)
	v.SetDefault("extractor.max_title_length", cfg.Extractor.MaxTitleLength)

	v.SetDefault("summary.max_length", cfg.Summary.MaxLength)
	v.SetDefault("summary.top_sentences", cfg.Summary.TopSentences)

	v.SetDefault("cache.content_size", cfg.Cache.ContentSize)
	v.SetDefault("cache.content_ttl", cfg.Cache.ContentTTL)
	v.SetDefault("cache.dedup_size", cfg.Cache.DedupSize)
	v.SetDefault("cache.dedup_ttl", cfg.Cache.DedupTTL)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_db", cfg.Storage.MongoDB)
	v.SetDefault("storage.pool_size", cfg.Storage.PoolSize)
	v.SetDefault("storage.page_size", cfg.Storage.PageSize)

	v.SetDefault("api.port", cfg.API.Port)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
