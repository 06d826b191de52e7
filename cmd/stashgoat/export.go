package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/StashGoat/internal/storage"
)

var (
	exportFormat string
	exportDir    string
	exportCat    string
)

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's articles to a file",
		RunE:  runExport,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json, jsonl, csv")
	cmd.Flags().StringVarP(&exportDir, "output", "o", "./export", "output directory")
	cmd.Flags().StringVar(&exportCat, "category", "", "only export articles in this category")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	p, _, _, logger, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	exp, err := storage.NewExporter(exportFormat, exportDir, logger)
	if err != nil {
		return err
	}

	n, err := p.Export(context.Background(), ownerID, exportCat, exp)
	if cerr := exp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fmt.Printf("exported %d articles to %s (%s)\n", n, exportDir, exportFormat)
	return nil
}
