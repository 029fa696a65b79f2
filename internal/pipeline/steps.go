package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/uiscout/internal/config"
	"github.com/nao1215/uiscout/internal/crawler"
	"github.com/nao1215/uiscout/internal/httpclient"
	"github.com/nao1215/uiscout/internal/model"
)

// CrawlStep runs the bounded same-domain crawl for the report's seed.
//
// Design decision: The step builds a fresh Spider per execution so that no
// crawl state survives between seeds, even when one step value is reused.
type CrawlStep struct {
	client *http.Client
	logger *slog.Logger

	// budget replaces report.PageBudget when positive.
	budget int

	// Spider settings, passed through unchanged.
	delay          time.Duration
	userAgent      string
	maxBodySize    int64
	ignorePatterns []string
	followPatterns []string
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlBudget overrides the page budget of the report being crawled.
// Zero keeps the report's budget.
func WithCrawlBudget(budget int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.budget = budget
	}
}

// WithCrawlDelay spaces out fetches within one crawl. Zero disables it.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlLogger sets the logger handed to the spider.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// WithCrawlIgnorePatterns drops discovered links whose path matches any glob.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlFollowPatterns keeps only discovered links whose path matches a glob.
func WithCrawlFollowPatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.followPatterns = patterns
	}
}

// WithCrawlUserAgent sets the User-Agent sent with every fetch.
func WithCrawlUserAgent(userAgent string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.userAgent = userAgent
	}
}

// WithCrawlMaxBodySize caps how much of each page body is parsed.
func WithCrawlMaxBodySize(maxBodySize int64) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxBodySize = maxBodySize
	}
}

// NewCrawlStep creates a crawl step over client with the config defaults.
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:      client,
		delay:       config.DefaultCrawlDelay,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Step.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. A seed failure is returned as the step
// error; secondary page failures only show up in report.Stats.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if s.budget > 0 {
		report.PageBudget = s.budget
	}

	spider := crawler.NewSpider(s.client,
		crawler.WithLogger(s.logger),
		crawler.WithDelay(s.delay),
		crawler.WithUserAgent(s.userAgent),
		crawler.WithMaxBodySize(s.maxBodySize),
		crawler.WithIgnorePatterns(s.ignorePatterns),
		crawler.WithFollowPatterns(s.followPatterns),
	)

	if err := spider.Run(ctx, report); err != nil {
		return err
	}

	s.logger.Info("seed crawled",
		"seed", report.SeedURL,
		"pages", len(report.Pages),
		"stats", report.Stats,
	)
	return nil
}

// SummarizeStep tallies extracted elements per kind.
type SummarizeStep struct{}

// NewSummarizeStep creates a new summarize step.
func NewSummarizeStep() *SummarizeStep {
	return &SummarizeStep{}
}

// Name implements Step.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do fills report.Summary from the crawled pages.
func (s *SummarizeStep) Do(_ context.Context, report *model.CrawlReport) error {
	report.Summary = model.NewKindSummary(report.Pages)
	return nil
}

// ReportStore persists finished crawl reports.
// *database.CrawlDB satisfies this interface.
type ReportStore interface {
	SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (int64, error)
}

// PersistStep stores the report in the crawl history so that later runs
// can be compared against it.
type PersistStep struct {
	store  ReportStore
	logger *slog.Logger
}

// NewPersistStep creates a step that saves reports to store.
func NewPersistStep(store ReportStore, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{store: store, logger: logger}
}

// Name implements Step.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the report. Reports without pages are not stored.
func (s *PersistStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if len(report.Pages) == 0 {
		s.logger.Debug("skipping persist, no pages", "seed", report.SeedURL)
		return nil
	}
	id, err := s.store.SaveCrawlReport(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}
	s.logger.Debug("crawl report saved", "seed", report.SeedURL, "id", id)
	return nil
}

// DefaultPipelineConfig collects the crawl settings for one seed: the
// global flags first, then the matching site entry from the config file.
type DefaultPipelineConfig struct {
	// Budget replaces the report's page budget when positive.
	Budget int

	// Request decoration.
	Cookie    string
	Headers   map[string]string
	UserAgent string

	// Link discovery filters.
	IgnorePatterns []string
	FollowPatterns []string

	CrawlDelay  time.Duration
	MaxBodySize int64

	// Store, when set, adds a persist step.
	Store ReportStore
}

// DefaultPipelineOption adjusts a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineBudget sets a per-site page budget.
func WithPipelineBudget(budget int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Budget = budget
	}
}

// WithPipelineCookie attaches a raw Cookie header to every fetch.
func WithPipelineCookie(cookie string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Cookie = cookie
	}
}

// WithPipelineHeaders attaches extra headers to every fetch.
func WithPipelineHeaders(headers map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Headers = headers
	}
}

// WithPipelineIgnorePatterns see WithCrawlIgnorePatterns.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns see WithCrawlFollowPatterns.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineCrawlDelay see WithCrawlDelay.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineUserAgent overrides the User-Agent unless userAgent is empty.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if userAgent != "" {
			c.UserAgent = userAgent
		}
	}
}

// WithPipelineMaxBodySize see WithCrawlMaxBodySize.
func WithPipelineMaxBodySize(maxBodySize int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxBodySize = maxBodySize
	}
}

// WithPipelineStore enables saving reports to the crawl history.
func WithPipelineStore(store ReportStore) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// WithSiteConfig applies the per-host settings from the config file.
// Zero-valued fields leave the current configuration untouched.
func WithSiteConfig(site config.SiteConfig) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if site.Budget > 0 {
			c.Budget = site.Budget
		}
		if site.Cookie != "" {
			c.Cookie = site.Cookie
		}
		if len(site.Headers) > 0 {
			c.Headers = site.Headers
		}
		if site.UserAgent != "" {
			c.UserAgent = site.UserAgent
		}
		if len(site.IgnorePatterns) > 0 {
			c.IgnorePatterns = site.IgnorePatterns
		}
		if len(site.FollowPatterns) > 0 {
			c.FollowPatterns = site.FollowPatterns
		}
	}
}

// DefaultPipeline creates the standard crawl pipeline: crawl, summarize
// and, when a store is configured, persist.
//
// pipelineOpts configure the Pipeline itself; configOpts configure the
// crawl. Cookie and headers are bound to the HTTP client here, so the crawl
// step only sees a client that already carries them.
func DefaultPipeline(client *httpclient.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		CrawlDelay:  config.DefaultCrawlDelay,
		UserAgent:   config.DefaultUserAgent,
		MaxBodySize: config.DefaultMaxBodySize,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	httpClient := client.HTTPClientWithHeaders(cfg.Cookie, cfg.Headers)

	p.AddSteps(
		NewCrawlStep(httpClient,
			WithCrawlLogger(p.logger),
			WithCrawlBudget(cfg.Budget),
			WithCrawlDelay(cfg.CrawlDelay),
			WithCrawlUserAgent(cfg.UserAgent),
			WithCrawlMaxBodySize(cfg.MaxBodySize),
			WithCrawlIgnorePatterns(cfg.IgnorePatterns),
			WithCrawlFollowPatterns(cfg.FollowPatterns),
		),
		NewSummarizeStep(),
	)
	if cfg.Store != nil {
		p.AddStep(NewPersistStep(cfg.Store, p.logger))
	}

	return p
}
