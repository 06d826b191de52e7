package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/observability"
	"github.com/IshaanNene/StashGoat/internal/pipeline"
	"github.com/IshaanNene/StashGoat/internal/storage"
)

var (
	cfgFile string
	verbose bool
	ownerID string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stashgoat",
		Short: "StashGoat — read-later article stash",
		Long: `StashGoat ingests web articles into a personal read-later stash.

Submit a URL and it is fetched, the readable text extracted, summarized,
categorized by topic, compressed and stored. Duplicate submissions of
the same URL always resolve to the same stored article.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "default", "owner the articles belong to")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(readCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("StashGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Fetcher:\n")
			fmt.Printf("  Request Timeout:  %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Retries:      %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Backoff Base:     %s\n", cfg.Fetcher.BackoffBase)
			fmt.Printf("  Max Body Size:    %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nExtractor:\n")
			fmt.Printf("  Max Text Length:  %d\n", cfg.Extractor.MaxTextLength)
			fmt.Printf("  Min Body Length:  %d\n", cfg.Extractor.MinBodyLength)
			fmt.Printf("\nSummary:\n")
			fmt.Printf("  Max Length:       %d\n", cfg.Summary.MaxLength)
			fmt.Printf("  Top Sentences:    %d\n", cfg.Summary.TopSentences)
			fmt.Printf("\nCache:\n")
			fmt.Printf("  Content:          %d entries, TTL %s\n", cfg.Cache.ContentSize, cfg.Cache.ContentTTL)
			fmt.Printf("  Dedup:            %d entries, TTL %s\n", cfg.Cache.DedupSize, cfg.Cache.DedupTTL)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			if cfg.Storage.Type == "mongodb" {
				fmt.Printf("  Mongo Database:   %s\n", cfg.Storage.MongoDB)
			} else {
				fmt.Printf("  DB Path:          %s\n", cfg.Storage.DBPath)
			}
			fmt.Printf("  Pool Size:        %d\n", cfg.Storage.PoolSize)
			fmt.Printf("  Page Size:        %d\n", cfg.Storage.PageSize)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Port:             %d\n", cfg.API.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config,
// with --verbose forcing debug level.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildPipeline loads config and assembles the full pipeline. The
// returned cleanup closes the fetcher and storage.
func buildPipeline() (*pipeline.Pipeline, *observability.Metrics, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create storage: %w", err)
	}

	metrics := observability.NewMetrics(logger)
	p := pipeline.New(cfg, store, metrics, logger)
	return p, metrics, cfg, logger, nil
}
