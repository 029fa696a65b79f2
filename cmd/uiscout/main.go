// Package main provides the entry point for the uiscout CLI.
//
// uiscout crawls a website from a seed URL, stays on the seed's host, and
// records every interactive element (buttons, links, form controls, ARIA
// widgets) with a synthesized selector for UI test generation.
//
// Usage:
//
//	uiscout crawl <seed-url>
//	uiscout snapshot <page-url>
//	uiscout compare <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for uiscout.
func main() {
	Execute()
}
