package main

import (
	"fmt"
	"time"

	"github.com/nao1215/uiscout/internal/config"
	"github.com/nao1215/uiscout/internal/crawler"
	"github.com/nao1215/uiscout/internal/model"
	"github.com/spf13/cobra"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <page-url>",
		Short: "Analyze a single page without following links",
		Long: `Snapshot fetches one page and lists its buttons, links, inputs and
headings. No links are followed and nothing is stored in the crawl history.

Examples:
  # Print the elements of one page
  uiscout snapshot https://example.com/login

  # Emit the page list for a test generator
  uiscout snapshot --json https://example.com/login`,
		Args: cobra.ExactArgs(1),
		RunE: runSnapshotCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with the request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .uiscout in current or home directory)")

	addReportFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runSnapshotCmd executes the snapshot command.
func runSnapshotCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Seeds = args
	cfg.PageBudget = 1
	cfg.SaveToDB = false
	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyClientFlags(cmd, cfg); err != nil {
		return err
	}
	if err := loadSiteConfigs(cmd, cfg); err != nil {
		return err
	}

	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signalContext(cmd)
	defer stop()

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pageURL := cfg.Seeds[0]
	site := cfg.SiteFor(hostOf(pageURL))
	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	spider := crawler.NewSpider(
		client.HTTPClientWithHeaders(site.Cookie, site.Headers),
		crawler.WithLogger(logger),
		crawler.WithUserAgent(userAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	)

	snapshot := model.NewCrawlReport(pageURL, cfg.PageBudget)
	page, err := spider.Snapshot(ctx, pageURL)
	snapshot.FinishedAt = time.Now()
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	snapshot.Pages = []*model.Page{page}
	snapshot.Summary = model.NewKindSummary(snapshot.Pages)
	snapshot.PerformedSteps = []string{"snapshot"}

	out, closeOut, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // nothing useful to do on close failure

	format := outputFormat{
		json:     cfg.JSONReport,
		markdown: cfg.MarkdownReport,
		verbose:  true,
	}
	_, err = newReportWriter(out, format).Write(snapshot)
	return err
}
