// Package model defines the core data structures used throughout uiscout.
//
// This package contains the following main types:
//   - Element: One interactive node, a tagged union over Kind
//   - Page: A fetched URL with its extracted elements and fingerprint
//   - CrawlReport: The ordered crawl result with statistics
//   - CrawlDiff: Differences between two stored crawls of one seed
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The extractor, crawler, database and report packages all
// need these types, so centralizing them prevents import cycles.
//
// The models serialize to the JSON shape consumed by test code generators.
package model
