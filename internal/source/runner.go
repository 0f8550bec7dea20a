package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
)

// FetchWithRetry invokes one source inside the retry shell and reports the
// result as an outcome. A source that keeps failing transiently is retried
// on the config's schedule; a fatal error exhausts it immediately. Either
// way the failure stays local: the outcome records it and the returned
// leads are simply empty, so the rest of the run is unaffected.
func FetchWithRetry(ctx context.Context, cfg resilience.RetryConfig, src Source, loc model.ResolvedLocation, opts Options) ([]model.Lead, model.Outcome) {
	log := zap.L().With(zap.String("source", src.Name()))

	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(src.Name(), "fetch")
	}

	var attempts int
	start := time.Now()
	leads, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]model.Lead, error) {
		attempts++
		return src.Fetch(ctx, loc, opts)
	})
	elapsed := time.Since(start)

	outcome := model.Outcome{
		Source:   src.Name(),
		Status:   model.SourceSucceeded,
		Attempts: attempts,
		Elapsed:  elapsed,
	}

	if err != nil {
		log.Error("source exhausted",
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		outcome.Status = model.SourceExhausted
		outcome.Error = err.Error()
		return nil, outcome
	}

	outcome.Leads = len(leads)
	outcome.WithPhone = model.CountWithPhone(leads)
	log.Info("source complete",
		zap.Int("leads", outcome.Leads),
		zap.Int("with_phone", outcome.WithPhone),
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", elapsed),
	)
	return leads, outcome
}
