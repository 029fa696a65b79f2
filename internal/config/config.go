package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultPageBudget is the seed page plus the hard ceiling of secondary
	// pages a single crawl may fetch.
	DefaultPageBudget = 21

	// DefaultTimeout bounds each fetch. The crawl is sequential, so slow
	// fetches add up; 30 seconds keeps the worst case predictable.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the pause between two fetches of the same crawl.
	DefaultCrawlDelay = 250 * time.Millisecond

	// DefaultBatchSize is the number of seeds crawled concurrently.
	// Each crawl is itself sequential.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "uiscout"

	// DefaultUserAgent is sent with every request. Some sites reject
	// requests that carry Go's default agent.
	DefaultUserAgent = "Mozilla/5.0 (compatible; uiscout/1.0; +https://github.com/nao1215/uiscout)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for uiscout.
// It is populated from CLI flags and passed down explicitly.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Seeds is the list of seed URLs to crawl.
	Seeds []string

	// PageBudget is the maximum number of pages (seed included) one crawl
	// may return. The crawler additionally caps secondary pages at 20.
	PageBudget int

	// Timeout is the per-fetch timeout, not the overall crawl duration.
	Timeout time.Duration

	// CrawlDelay is the delay between HTTP requests of one crawl.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Larger responses are truncated before parsing.
	MaxBodySize int64

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// When empty, requests go out directly.
	ProxyAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .uiscout in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the crawl history database.
	// Defaults to the XDG data directory (~/.local/share/uiscout on Linux).
	DBDir string

	// SaveToDB indicates whether crawl results are stored for compare.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		PageBudget:  DefaultPageBudget,
		Timeout:     DefaultTimeout,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		BatchSize:   DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for uiscout.
// On Linux: ~/.local/share/uiscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for uiscout.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoTarget
	}

	if c.PageBudget < 1 {
		return ErrInvalidPageBudget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// SiteFor returns the merged site configuration for host.
// A config without a loaded file yields the zero SiteConfig.
func (c *Config) SiteFor(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}
