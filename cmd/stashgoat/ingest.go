package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listPage     int
	listCategory string
)

// ingestCmd creates the "ingest" subcommand.
func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [url]...",
		Short: "Fetch, summarize and store one or more URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, _, _, logger, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed int
	for _, rawURL := range args {
		res, err := p.Ingest(ctx, ownerID, rawURL)
		if err != nil {
			logger.Error("ingest failed", "url", rawURL, "error", err)
			failed++
			continue
		}

		a := res.Article
		status := "stored"
		if !res.Created {
			status = "already stored"
		}
		fmt.Printf("%s %s\n", status, a.URL)
		fmt.Printf("  id:       %s\n", a.ID)
		fmt.Printf("  title:    %s\n", a.Title)
		fmt.Printf("  category: %s\n", a.Category)
		fmt.Printf("  summary:  %s\n", a.Summary)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(args))
	}
	return nil
}

// listCmd creates the "list" subcommand.
func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored articles for an owner, newest first",
		RunE:  runList,
	}
	cmd.Flags().IntVarP(&listPage, "page", "p", 0, "page number, starting at 0")
	cmd.Flags().StringVar(&listCategory, "category", "", "only show articles in this category")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	p, _, _, _, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	articles, hasMore, err := p.List(context.Background(), ownerID, listCategory, listPage)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("no articles")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tCREATED\tTITLE")
	for _, a := range articles {
		title := a.Title
		if title == "" {
			title = a.URL
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Category, a.CreatedAt.Format("2006-01-02 15:04"), title)
	}
	w.Flush()

	if hasMore {
		fmt.Printf("\nmore articles on page %d\n", listPage+1)
	}
	return nil
}

// readCmd creates the "read" subcommand.
func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [id]",
		Short: "Print a stored article's full text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, _, _, err := buildPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			a, body, err := p.Get(context.Background(), args[0])
			if err != nil {
				return err
			}

			if a.Title != "" {
				fmt.Println(a.Title)
				fmt.Println(strings.Repeat("=", len(a.Title)))
			}
			fmt.Printf("%s | %s | %s\n\n", a.URL, a.Category, a.CreatedAt.Format("2006-01-02"))
			fmt.Println(body)
			return nil
		},
	}
}

// deleteCmd creates the "delete" subcommand.
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, _, _, err := buildPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.Delete(context.Background(), args[0], ownerID); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
