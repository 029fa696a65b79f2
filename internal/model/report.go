package model

import (
	"net/url"
	"strings"
	"time"
)

// CrawlStats describes how a crawl spent its fetch budget.
type CrawlStats struct {
	// Candidates is the number of same-domain links discovered on the seed page.
	Candidates int `json:"candidates"`

	// Filtered is the number of discovered links rejected by the
	// same-domain filter, URL parsing, or the site's path patterns.
	Filtered int `json:"filtered"`

	// Attempted is the number of secondary pages fetched (success or not).
	Attempted int `json:"attempted"`

	// Admitted is the number of secondary pages added to the result.
	Admitted int `json:"admitted"`

	// Duplicates is the number of fetched pages discarded because their
	// fingerprint was already seen.
	Duplicates int `json:"duplicates"`

	// Failed is the number of secondary pages that could not be fetched or parsed.
	Failed int `json:"failed"`
}

// CrawlReport is the result of one crawl invocation together with the
// metadata needed to store, render, and compare it.
//
// Design decision: We wrap the ordered page list instead of returning it bare
// because:
// 1. Pipeline steps need a shared value to annotate
// 2. The history database stores the report as a unit
// 3. Reports need timing and statistics next to the pages
type CrawlReport struct {
	// SeedURL is the caller-supplied entry URL.
	SeedURL string `json:"seedUrl"`

	// PageBudget is the maximum number of pages (seed included) requested.
	PageBudget int `json:"pageBudget"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the crawl ended.
	FinishedAt time.Time `json:"finishedAt"`

	// Pages is the ordered crawl result. Pages[0] is always the seed page
	// when the crawl succeeded.
	Pages []*Page `json:"pages"`

	// Stats describes fetch attempts and outcomes.
	Stats CrawlStats `json:"stats"`

	// Summary counts elements per kind across all pages.
	Summary KindSummary `json:"summary,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performedSteps,omitempty"`

	// Error is the fatal crawl error, if any. Not serialized.
	Error error `json:"-"`

	// ErrorMessage is the serializable form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is true when the crawl was aborted by cancellation.
	TimedOut bool `json:"timedOut,omitempty"`
}

// NewCrawlReport creates an empty report for the given seed and budget.
func NewCrawlReport(seedURL string, budget int) *CrawlReport {
	return &CrawlReport{
		SeedURL:    seedURL,
		PageBudget: budget,
		StartedAt:  time.Now(),
		Pages:      make([]*Page, 0),
	}
}

// Host returns the lowercased hostname of the seed URL, or the raw seed
// when it cannot be parsed.
func (r *CrawlReport) Host() string {
	u, err := url.Parse(r.SeedURL)
	if err != nil || u.Hostname() == "" {
		return r.SeedURL
	}
	return strings.ToLower(u.Hostname())
}

// Duration returns how long the crawl took.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TotalElements returns the number of elements across all pages.
func (r *CrawlReport) TotalElements() int {
	total := 0
	for _, p := range r.Pages {
		total += len(p.Elements)
	}
	return total
}

// Succeeded reports whether the crawl produced a result.
func (r *CrawlReport) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == "" && len(r.Pages) > 0
}
