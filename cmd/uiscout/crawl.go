package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/uiscout/internal/config"
	"github.com/nao1215/uiscout/internal/database"
	"github.com/nao1215/uiscout/internal/httpclient"
	"github.com/nao1215/uiscout/internal/model"
	"github.com/nao1215/uiscout/internal/pipeline"
	"github.com/nao1215/uiscout/internal/report"
	"github.com/spf13/cobra"
)

// errCrawlsFailed is returned when at least one seed could not be crawled.
var errCrawlsFailed = errors.New("one or more crawls failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl a site and extract its interactive elements",
		Long: `Crawl fetches the seed page, follows links that stay on the seed's host,
and extracts interactive elements from every page.

At most 20 linked pages are fetched per seed, fewer when --budget is
smaller. Pages whose interactive structure matches an earlier page are
dropped. A failing linked page is skipped; only a failing seed page
fails the crawl.

Every successful crawl is stored in the history database so that
'uiscout compare' can show what changed.

Examples:
  # Crawl a site and print a summary
  uiscout crawl https://example.com/

  # Emit the page list consumed by test generators
  uiscout crawl --json https://example.com/ > pages.json

  # Crawl several sites, four at a time
  uiscout crawl --batch 4 https://a.example/ https://b.example/

  # Route requests through a SOCKS5 proxy
  uiscout crawl --proxy 127.0.0.1:9050 https://example.com/

Configuration file (.uiscout) example:
  sites:
    staging.example.com:
      headers:
        Authorization: "Bearer token"
      budget: 10
      ignorePatterns:
        - "/admin/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("budget", "p", config.DefaultPageBudget,
		"Maximum number of pages per seed, seed included")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same site")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .uiscout in current or home directory)")

	// Report flags
	addReportFlags(cmd)
	cmd.Flags().Bool("full", false,
		"With --json, emit the whole crawl report with statistics instead of the page list")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not store results in the crawl history")

	return cmd
}

// addReportFlags registers the output format flags shared by commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signalContext(cmd)
	defer stop()

	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return err
	}
	format := outputFormat{
		json:     cfg.JSONReport,
		markdown: cfg.MarkdownReport,
		full:     full,
		verbose:  cfg.Verbose,
	}

	return runCrawl(ctx, cmd, cfg, format, logger)
}

// signalContext returns the command context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.PageBudget, err = cmd.Flags().GetInt("budget")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	if err := applyClientFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := loadSiteConfigs(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Seeds = args

	return cfg, nil
}

// applyClientFlags reads the HTTP client flags shared by crawl and snapshot.
func applyClientFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	return err
}

// loadSiteConfigs loads per-host settings from the configuration file.
// An explicitly named file must exist; otherwise a missing file means an
// empty configuration.
func loadSiteConfigs(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}
	return nil
}

// newClient creates the HTTP client and verifies the proxy when one is set.
func newClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*httpclient.Client, error) {
	client, err := httpclient.NewClient(cfg.Timeout, httpclient.WithProxy(cfg.ProxyAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyAddress == "" {
		return client, nil
	}

	status := client.CheckProxy(ctx)
	if status != httpclient.ProxyStatusOK {
		return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
			status.Error(), cfg.ProxyAddress)
	}
	logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	return client, nil
}

// crawlRun holds what every crawl of one command invocation shares.
type crawlRun struct {
	cfg    *config.Config
	client *httpclient.Client
	db     *database.CrawlDB
	writer report.Writer
	stderr io.Writer
	logger *slog.Logger

	// mu serializes report output and the failure count.
	mu     sync.Mutex
	failed int
}

// runCrawl crawls every seed and writes one report per seed.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, format outputFormat, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"budget", cfg.PageBudget,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	run := &crawlRun{
		cfg:    cfg,
		stderr: cmd.ErrOrStderr(),
		logger: logger,
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		run.db = db
		logger.Info("database opened", "path", db.Path())
	}

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	run.client = client

	out, closeOut, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // nothing useful to do on close failure
	run.writer = newReportWriter(out, format)

	if len(cfg.Seeds) > 1 && cfg.BatchSize > 1 {
		err = run.batch(ctx)
	} else {
		err = run.sequential(ctx)
	}
	if err != nil {
		return err
	}

	if run.failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCrawlsFailed, run.failed, len(cfg.Seeds))
	}
	return nil
}

// sequential crawls seeds one at a time.
func (r *crawlRun) sequential(ctx context.Context) error {
	for _, seed := range r.cfg.Seeds {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(r.stderr, "Crawling %s...\n", seed)
		crawlReport := model.NewCrawlReport(seed, r.cfg.PageBudget)
		if err := r.pipelineFor(seed).Execute(ctx, crawlReport); err != nil {
			r.logger.Debug("pipeline stopped", "seed", seed, "error", err)
		}
		r.handle(crawlReport)
	}
	return nil
}

// batch crawls seeds concurrently with the BatchProcessor.
func (r *crawlRun) batch(ctx context.Context) error {
	total := len(r.cfg.Seeds)
	fmt.Fprintf(r.stderr, "Starting batch crawl of %d seeds (concurrency: %d)...\n", total, r.cfg.BatchSize)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		r.pipelineFor,
		pipeline.WithConcurrency(r.cfg.BatchSize),
		pipeline.WithBatchLogger(r.logger),
	)

	err := bp.ProcessBatchWithCallback(ctx, r.cfg.Seeds, r.cfg.PageBudget, func(crawlReport *model.CrawlReport, index int) {
		fmt.Fprintf(r.stderr, "[%d/%d] Crawl finished: %s\n", index+1, total, crawlReport.SeedURL)
		r.handle(crawlReport)
	})

	fmt.Fprintf(r.stderr, "Batch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return err
}

// handle writes a finished report, or reports its failure.
// It is safe for concurrent use.
func (r *crawlRun) handle(crawlReport *model.CrawlReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !crawlReport.Succeeded() {
		r.failed++
		fmt.Fprintf(r.stderr, "Crawl error for %s: %s\n", crawlReport.SeedURL, crawlReport.ErrorMessage)
		return
	}

	fmt.Fprintf(r.stderr, "Crawled %d page(s) of %s in %s\n",
		len(crawlReport.Pages), crawlReport.SeedURL, crawlReport.Duration().Round(time.Millisecond))

	if _, err := r.writer.Write(crawlReport); err != nil {
		r.logger.Error("report failed", "seed", crawlReport.SeedURL, "error", err)
	}
}

// pipelineFor builds the pipeline for one seed, applying the per-host
// settings of the configuration file.
func (r *crawlRun) pipelineFor(seed string) *pipeline.Pipeline {
	site := r.cfg.SiteFor(hostOf(seed))

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(r.logger),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineCrawlDelay(r.cfg.CrawlDelay),
		pipeline.WithPipelineUserAgent(r.cfg.UserAgent),
		pipeline.WithPipelineMaxBodySize(r.cfg.MaxBodySize),
		pipeline.WithSiteConfig(site),
	}
	if r.db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineStore(r.db))
	}

	return pipeline.DefaultPipeline(r.client, pipelineOpts, configOpts...)
}

// hostOf returns the lowercased hostname of rawURL, or "" when it has none.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
