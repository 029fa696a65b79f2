package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/uiscout/internal/config"
	"github.com/nao1215/uiscout/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory builds the pipeline for one seed. It receives the seed so that
// per-site settings (headers, patterns, budget) can be applied.
type Factory func(seed string) *Pipeline

// BatchProcessor crawls several seeds concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on a single crawl
// 2. Crawls of different seeds share nothing, so they parallelize safely
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each seed.
	pipelineFactory Factory

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default (config.DefaultBatchSize).
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls every seed with the given page budget and returns
// one report per seed, in input order. A failed crawl does not stop the
// others; its error is recorded in its report.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// The error return is non-nil only when ctx was cancelled before every
// crawl could start. Reports of crawls that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string, budget int) ([]*model.CrawlReport, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.CrawlReport, len(seeds))
	err := bp.run(ctx, seeds, budget, func(report *model.CrawlReport, index int) {
		results[index] = report
	})

	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback crawls seeds and calls callback for each finished
// report as soon as it is done, which lets the CLI stream results.
//
// The callback is called from the goroutine that ran the crawl, so it must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	budget int,
	callback func(report *model.CrawlReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, seeds, budget, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	seeds []string,
	budget int,
	done func(report *model.CrawlReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			report := model.NewCrawlReport(seed, budget)
			if err := bp.pipelineFactory(seed).Execute(ctx, report); err != nil {
				// The error is recorded in the report; other crawls go on.
				bp.logger.Warn("crawl failed",
					"seed", seed,
					"error", err,
				)
			} else {
				bp.logger.Info("crawl completed",
					"seed", seed,
					"pages", len(report.Pages),
				)
			}

			done(report, i)
			return nil
		})
	}

	return g.Wait()
}
