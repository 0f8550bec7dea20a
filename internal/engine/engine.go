// Package engine orchestrates a scrape run: it fans the resolved location
// out across the selected sources, runs each one inside the retry shell,
// and aggregates leads and per-source outcomes.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
	"github.com/gymscout/leads-cli/internal/source"
)

// RunOpts configures which sources run and how.
type RunOpts struct {
	Sources    []string // restrict to specific source names; empty = all registered
	Sequential bool     // one source at a time instead of all at once
	Headless   bool
	Enrich     bool
}

// Result aggregates a finished run. Leads holds every source's output, one
// contiguous block per source, block order following completion order.
// Outcomes are in selection order, one per selected source, failures
// included.
type Result struct {
	Leads    []model.Lead
	Outcomes []model.Outcome
}

// Engine dispatches retry-wrapped source invocations.
type Engine struct {
	registry *source.Registry
	retry    resilience.RetryConfig
}

// New creates an engine over the registry using the default retry schedule.
func New(reg *source.Registry) *Engine {
	return &Engine{registry: reg, retry: resilience.DefaultRetryConfig()}
}

// NewWithRetry creates an engine with a custom retry configuration.
func NewWithRetry(reg *source.Registry, cfg resilience.RetryConfig) *Engine {
	return &Engine{registry: reg, retry: cfg}
}

// Run executes the selected sources against the resolved location. A source
// that keeps failing is reported in its outcome, never as a Run error; the
// only error cases are an unknown source name and cancellation.
func (e *Engine) Run(ctx context.Context, loc model.ResolvedLocation, opts RunOpts) (Result, error) {
	log := zap.L().With(zap.String("component", "engine"))

	sources, err := e.registry.Select(opts.Sources)
	if err != nil {
		return Result{}, err
	}
	if len(sources) == 0 {
		log.Info("no sources selected")
		return Result{}, nil
	}

	limit := len(sources)
	if opts.Sequential {
		limit = 1
	}
	log.Info("starting scrape",
		zap.String("location", loc.Label()),
		zap.Int("sources", len(sources)),
		zap.Int("concurrency", limit),
	)

	fetchOpts := source.Options{Headless: opts.Headless, Enrich: opts.Enrich}

	var (
		mu    sync.Mutex
		leads []model.Lead
	)
	outcomes := make([]model.Outcome, len(sources))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			srcLeads, outcome := source.FetchWithRetry(gctx, e.retry, src, loc, fetchOpts)
			outcomes[i] = outcome

			mu.Lock()
			leads = append(leads, srcLeads...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var succeeded, exhausted int
	for _, o := range outcomes {
		if o.Status == model.SourceExhausted {
			exhausted++
		} else {
			succeeded++
		}
	}
	log.Info("scrape complete",
		zap.Int("leads", len(leads)),
		zap.Int("succeeded", succeeded),
		zap.Int("exhausted", exhausted),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{Leads: leads, Outcomes: outcomes}, nil
}
