package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/uiscout/internal/model"
)

// Step is one stage of processing a crawl report: crawling the seed,
// summarizing elements, persisting to history.
//
// Design decision: Steps are an interface rather than plain functions because:
// 1. Steps carry their own options (budget, patterns, store)
// 2. Name() gives each stage a stable label for logs and PerformedSteps
type Step interface {
	// Do mutates report. A returned error aborts the pipeline unless it
	// runs with WithContinueOnError.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name is the label recorded in report.PerformedSteps.
	Name() string
}

// Pipeline runs its steps in order against one CrawlReport.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after one fails. The
// failure is still recorded on the report.
//
// The default is to stop: a failed crawl leaves nothing to summarize or store.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against report.
//
// Cancellation is checked between steps only; the crawl step watches ctx
// itself and aborts between fetches. Steps that succeed are appended to
// report.PerformedSteps. A failing step sets report.Error and, when the
// cause is cancellation or a deadline, report.TimedOut.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	logger := p.logger.With("seed", report.SeedURL)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("pipeline cancelled before step", "step", step.Name(), "reason", err)
			report.TimedOut = true
			return err
		}

		start := time.Now()
		err := step.Do(ctx, report)
		elapsed := time.Since(start)

		if err == nil {
			logger.Debug("step completed", "step", step.Name(), "elapsed", elapsed)
			report.PerformedSteps = append(report.PerformedSteps, step.Name())
			continue
		}

		logger.Error("step failed", "step", step.Name(), "elapsed", elapsed, "error", err)
		recordFailure(report, err)
		if !p.continueOnError {
			return err
		}
	}

	return nil
}

// recordFailure stores err on report. The last failure wins when the
// pipeline continues past errors.
func recordFailure(report *model.CrawlReport, err error) {
	report.Error = err
	report.ErrorMessage = err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		report.TimedOut = true
	}
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
