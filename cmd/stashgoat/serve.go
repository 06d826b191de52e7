package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/StashGoat/internal/api"
)

var servePort int

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server exposing the article stash.

Endpoints:
  POST   /api/v1/articles       submit a URL for ingestion
  GET    /api/v1/articles       list an owner's articles
  GET    /api/v1/articles/:id   read a stored article
  DELETE /api/v1/articles/:id   delete a stored article
  GET    /api/v1/stats          pipeline counters
  GET    /health                liveness probe
  GET    /metrics               Prometheus metrics`,
		RunE: runServe,
	}
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	p, metrics, cfg, logger, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	if servePort > 0 {
		cfg.API.Port = servePort
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		p.Close()
		os.Exit(0)
	}()

	server := api.NewServer(p, metrics, &cfg.API)
	logger.Info("api server starting", "port", cfg.API.Port, "storage", cfg.Storage.Type)
	if err := server.Start(); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
