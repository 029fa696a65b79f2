package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/uiscout/internal/config"
	"github.com/nao1215/uiscout/internal/database"
	"github.com/nao1215/uiscout/internal/model"
	"github.com/spf13/cobra"
)

// errSeedRequired is returned when compare needs a seed and none is given.
var errSeedRequired = errors.New("seed URL is required (use --list-seeds to see available seeds)")

// compareOptions holds the compare command flags.
type compareOptions struct {
	list      bool
	listSeeds bool
	withID    int64
	since     string
	format    outputFormat
	dbDir     string
}

// NewCompareCmd creates the compare command.
// This command compares crawl results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [seed-url]",
		Short: "Compare crawl results with historical data",
		Long: `Compare shows how the interactive structure of a site changed between two
stored crawls of the same seed URL:
- Pages that appeared since the earlier crawl
- Pages that are no longer reachable
- Pages whose elements changed, with the added and removed selectors

The comparison requires at least two crawls of the seed in the database.
Use 'uiscout crawl' to crawl and store results.

Examples:
  # Compare latest two crawls of a seed
  uiscout compare https://example.com/

  # List crawl history for a seed
  uiscout compare --list https://example.com/

  # Compare with a specific historical crawl by ID
  uiscout compare --with-id 5 https://example.com/

  # Compare with the first crawl since a date
  uiscout compare --since 2026-01-01 https://example.com/

  # List all crawled seeds
  uiscout compare --list-seeds`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List crawl history for the specified seed")
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all crawled seeds in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific crawl by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first crawl on or after this date (format: YYYY-MM-DD)")

	addReportFlags(cmd)
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts, err := compareOptionsFrom(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var seed string
	if !opts.listSeeds {
		if len(args) == 0 {
			return errSeedRequired
		}
		seed = args[0]
	}
	if opts.format.json && opts.format.markdown {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.listSeeds:
		return listCrawledSeeds(ctx, db, out)
	case opts.list:
		return listCrawlHistory(ctx, db, out, seed)
	default:
		return runComparison(ctx, db, out, seed, opts)
	}
}

// compareOptionsFrom reads the compare flags.
func compareOptionsFrom(cmd *cobra.Command) (compareOptions, error) {
	var opts compareOptions
	var err error

	if opts.list, err = cmd.Flags().GetBool("list"); err != nil {
		return opts, err
	}
	if opts.listSeeds, err = cmd.Flags().GetBool("list-seeds"); err != nil {
		return opts, err
	}
	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return opts, err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return opts, err
	}
	if opts.format.json, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.format.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	return opts, nil
}

// listCrawledSeeds lists all seeds that have crawl records in the database.
func listCrawledSeeds(ctx context.Context, db *database.CrawlDB, out io.Writer) error {
	seeds, err := db.ListCrawledSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No crawled seeds found in the database.")
		fmt.Fprintln(out, "\nUse 'uiscout crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawled seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	fmt.Fprintln(out, "\nUse 'uiscout compare --list <url>' to see crawl history for a seed.")

	return nil
}

// listCrawlHistory lists all crawl records for a seed.
func listCrawlHistory(ctx context.Context, db *database.CrawlDB, out io.Writer, seed string) error {
	history, err := db.GetCrawlHistoryWithMetadata(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No crawl history found for %s\n", seed)
		fmt.Fprintln(out, "\nUse 'uiscout crawl' to crawl this site.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d crawls):\n\n", seed, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %6s  %8s  %s\n", "ID", "Date", "Pages", "Elements", "Duration")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %6d  %8d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.PageCount,
			meta.ElementCount,
			meta.Duration.Round(time.Millisecond),
		)
	}

	fmt.Fprintln(out, "\nUse 'uiscout compare <url>' to compare the latest two crawls.")
	fmt.Fprintln(out, "Use 'uiscout compare --with-id <id> <url>' to compare with a specific crawl.")

	return nil
}

// runComparison diffs the latest crawl of seed against an earlier one.
func runComparison(ctx context.Context, db *database.CrawlDB, out io.Writer, seed string, opts compareOptions) error {
	history, err := db.GetCrawlHistoryWithMetadata(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(history) == 0 {
		return fmt.Errorf("no crawl history found for %s", seed)
	}

	// History is newest first; the latest crawl is always the current one.
	currentID := history[0].ID

	previousID, err := selectPreviousCrawl(history, opts)
	if err != nil {
		return err
	}

	current, err := db.GetCrawlReportByID(ctx, currentID)
	if err != nil {
		return fmt.Errorf("failed to load crawl %d: %w", currentID, err)
	}
	previous, err := db.GetCrawlReportByID(ctx, previousID)
	if err != nil {
		return fmt.Errorf("failed to get crawl with ID %d: %w", previousID, err)
	}
	if current == nil || previous == nil {
		return fmt.Errorf("crawl with ID %d not found", previousID)
	}
	if previous.SeedURL != seed {
		return fmt.Errorf("crawl ID %d belongs to %s, not %s", previousID, previous.SeedURL, seed)
	}

	diff := model.CompareReports(previous, current)
	_, err = newReportWriter(out, opts.format).WriteDiff(diff)
	return err
}

// selectPreviousCrawl picks the crawl to compare the latest one against.
// history must be newest first and non-empty.
func selectPreviousCrawl(history []database.CrawlReportMetadata, opts compareOptions) (int64, error) {
	switch {
	case opts.withID > 0:
		if opts.withID == history[0].ID {
			return 0, fmt.Errorf("crawl ID %d is the latest crawl; choose an earlier one", opts.withID)
		}
		return opts.withID, nil

	case opts.since != "":
		parsedDate, err := time.Parse("2006-01-02", opts.since)
		if err != nil {
			return 0, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Walk from the oldest crawl to find the first one on or after the date.
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Timestamp.Before(parsedDate) {
				continue
			}
			if i == 0 {
				return 0, fmt.Errorf("only one crawl found since %s; at least 2 crawls are required for comparison", opts.since)
			}
			return history[i].ID, nil
		}
		return 0, fmt.Errorf("no crawls found since %s", opts.since)

	default:
		if len(history) < 2 {
			return 0, fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(history))
		}
		return history[1].ID, nil
	}
}
