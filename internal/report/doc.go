// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - JSONWriter: the {"pages":[...]} document consumed by test generators
//   - FullJSONWriter: the complete crawl report with version metadata
//   - MarkdownWriter: tables, a kind pie chart and per-page element listings
//   - SimpleWriter: Human-readable text output for terminal display
//
// Every writer also renders a CrawlDiff for the compare command.
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
package report
