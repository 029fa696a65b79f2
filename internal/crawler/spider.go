package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/uiscout/internal/extract"
	"github.com/nao1215/uiscout/internal/fingerprint"
	"github.com/nao1215/uiscout/internal/model"
	"golang.org/x/time/rate"
)

// MaxSecondaryPages is the hard ceiling on pages fetched after the seed,
// whatever the budget.
const MaxSecondaryPages = 20

// DefaultUserAgent identifies the crawler to target sites. Some sites block
// requests without a browser-like agent, so it keeps the Mozilla prefix.
const DefaultUserAgent = "Mozilla/5.0 (compatible; uiscout/1.0; +https://github.com/nao1215/uiscout)"

// Spider crawls a site one hop from a seed page and extracts the
// interactive elements of every page it visits.
//
// A Spider holds only configuration. All crawl state (visited URLs, seen
// fingerprints, the rate limiter) lives inside a single Crawl call, so one
// Spider can serve concurrent crawls.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client performs every fetch. Its Timeout bounds each request.
	client *http.Client

	// logger receives skipped-candidate and duplicate notices.
	logger *slog.Logger

	// delay is the minimum interval between two fetches of one crawl.
	delay time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// filter restricts which discovered paths are fetched.
	filter PathFilter

	crawlExtractor    *extract.Extractor
	snapshotExtractor *extract.Extractor
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDelay sets the minimum delay between requests. Zero disables it.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.Ignore = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.Follow = patterns
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeouts, proxies and extra headers are configured by the httpclient package
//  2. Tests can point the spider at an httptest server
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:            client,
		logger:            slog.Default(),
		delay:             0,
		userAgent:         DefaultUserAgent,
		maxBodySize:       5 * 1024 * 1024, // 5MB
		crawlExtractor:    extract.New(extract.ModeCrawl),
		snapshotExtractor: extract.New(extract.ModeSnapshot),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl analyzes seedURL and up to min(budget-1, MaxSecondaryPages) pages
// linked from it on the same host.
//
// The result starts with the seed page, followed by admitted pages in link
// discovery order. A page whose fingerprint was already seen is dropped.
// Only an invalid seed, a failed seed fetch or cancellation return an
// error; in that case no pages are returned.
func (s *Spider) Crawl(ctx context.Context, seedURL string, budget int) ([]*model.Page, error) {
	report := model.NewCrawlReport(seedURL, budget)
	if err := s.Run(ctx, report); err != nil {
		return nil, err
	}
	return report.Pages, nil
}

// Run performs the crawl described by report and fills in its pages,
// statistics and finish time. On error report.Pages is left empty.
//
// Secondary fetches are attempted strictly one after another. Every
// attempt counts against the cap whether it fails, turns out to be a
// duplicate, or is admitted, so a crawl never performs more than
// MaxSecondaryPages secondary fetches.
func (s *Spider) Run(ctx context.Context, report *model.CrawlReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	seed, err := validateSeed(report.SeedURL)
	if err != nil {
		return err
	}
	if report.PageBudget < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBudget, report.PageBudget)
	}

	var limiter *rate.Limiter
	if s.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	if err := s.wait(ctx, limiter); err != nil {
		return err
	}
	seedPage, err := s.fetchPage(ctx, report.SeedURL, s.crawlExtractor)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to fetch seed page %s: %w", report.SeedURL, err)
	}

	pages := []*model.Page{seedPage}
	seen := fingerprint.NewSet()
	seen.Add(seedPage.Fingerprint)

	candidates := s.discover(seed, report.SeedURL, seedPage, &report.Stats)
	report.Stats.Candidates = len(candidates)

	if report.PageBudget <= 1 {
		report.Pages = pages
		return nil
	}

	limit := min(report.PageBudget-1, MaxSecondaryPages)
	for _, link := range candidates {
		if report.Stats.Attempted >= limit {
			break
		}
		if err := s.wait(ctx, limiter); err != nil {
			return err
		}

		report.Stats.Attempted++
		page, err := s.fetchPage(ctx, link, s.crawlExtractor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.Stats.Failed++
			s.logger.Warn("skipping page", "url", link, "error", err)
			continue
		}

		if !seen.Add(page.Fingerprint) {
			report.Stats.Duplicates++
			s.logger.Debug("discarding duplicate page", "url", link, "fingerprint", page.Fingerprint)
			continue
		}

		pages = append(pages, page)
		report.Stats.Admitted++
	}

	report.Pages = pages
	return nil
}

// Snapshot fetches a single page and analyzes it in snapshot mode. Links are
// not followed.
func (s *Spider) Snapshot(ctx context.Context, pageURL string) (*model.Page, error) {
	if _, err := validateSeed(pageURL); err != nil {
		return nil, err
	}
	page, err := s.fetchPage(ctx, pageURL, s.snapshotExtractor)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to fetch page %s: %w", pageURL, err)
	}
	return page, nil
}

// discover resolves every link on the seed page and returns the ordered,
// deduplicated same-host candidates, excluding the seed itself.
func (s *Spider) discover(seed *url.URL, seedURL string, seedPage *model.Page, stats *model.CrawlStats) []string {
	candidates := newCandidateSet(seedURL)

	for _, link := range seedPage.Links() {
		href := link.Href()
		if href == "" {
			continue
		}

		resolved, err := Resolve(seed, href)
		if err != nil {
			stats.Filtered++
			s.logger.Debug("dropping link", "href", href, "error", err)
			continue
		}
		if !SameHost(seed, resolved) || !isHTTP(resolved) {
			stats.Filtered++
			continue
		}
		if !s.filter.Allows(resolved) {
			stats.Filtered++
			s.logger.Debug("link excluded by path pattern", "url", resolved)
			continue
		}
		candidates.add(resolved)
	}

	return candidates.list()
}

// wait blocks until the limiter admits another fetch.
func (s *Spider) wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The limiter refuses waits that would outlive the deadline.
		return fmt.Errorf("crawl aborted: %w", context.DeadlineExceeded)
	}
	return nil
}

// validateSeed checks that rawURL is an absolute http(s) URL.
func validateSeed(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, ErrMissingSeedURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeedURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http or https URL", ErrInvalidSeedURL, rawURL)
	}
	return u, nil
}

// isHTTP reports whether rawURL uses a scheme the spider can fetch.
func isHTTP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsSeedError reports whether err was caused by invalid crawl input rather
// than by the network or the target site.
func IsSeedError(err error) bool {
	return errors.Is(err, ErrMissingSeedURL) ||
		errors.Is(err, ErrInvalidSeedURL) ||
		errors.Is(err, ErrInvalidBudget)
}
