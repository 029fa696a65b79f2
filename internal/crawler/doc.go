// Package crawler discovers and analyzes the pages of a website.
//
// # Architecture
//
// The package is built around the Spider type. A crawl fetches the seed
// page, resolves the links found on it, and then visits same-host
// candidates one at a time until the page budget or the hard ceiling of
// MaxSecondaryPages is reached. Each visited page is passed through the
// extract package and fingerprinted; a page whose fingerprint was already
// seen is discarded.
//
// Traversal is one hop deep. Links found on secondary pages are not followed.
//
// # Components
//
//   - Spider: coordinates a crawl and owns per-crawl state
//   - Resolve: turns a raw href into an absolute URL
//   - SameHost: the same-domain filter
//   - PathFilter: optional glob patterns restricting which paths are crawled
//
// # Politeness
//
//   - Fetches within one crawl are strictly sequential
//   - An optional delay spaces requests (golang.org/x/time/rate)
//   - Response bodies are size limited
//   - No retries are performed
//
// # Errors
//
// Only seed-level problems fail a crawl: a missing or malformed seed URL,
// a network error or non-2xx response for the seed page, or cancellation
// of the context. Failures on secondary pages are logged and skipped.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithDelay(250*time.Millisecond))
//	pages, err := spider.Crawl(ctx, "https://example.com/", 10)
package crawler
