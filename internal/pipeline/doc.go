// Package pipeline runs a crawl through a fixed sequence of steps.
//
// A single crawl is processed by crawling the seed, summarizing the
// extracted elements and optionally storing the result. Each stage is a
// Step that receives the shared CrawlReport and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
//
// Several seeds are crawled concurrently by BatchProcessor using errgroup;
// each individual crawl stays strictly sequential.
package pipeline
