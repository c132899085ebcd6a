package sources

import (
	"context"
	"sync"
	"time"

	"github.com/pitchside/tally/pkg/logger"
	"github.com/pitchside/tally/pkg/metrics"
)

// defaultWorkers bounds concurrent fetches. Sources are remote sites, so a
// small bound keeps the morning run polite.
const defaultWorkers = 4

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkers sets how many sources are fetched at once.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pool fans a fetch out over a set of sources with bounded concurrency.
type Pool struct {
	workers int
	logger  logger.Logger
}

// NewPool creates a fetch pool with configuration options.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		workers: defaultWorkers,
		logger:  logger.Get().Named("sources"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// FetchAll collects from every source and returns one Result per source in
// input order. Source failures land in the Result, never as a FetchAll
// error: a bad morning at one site must not cost the others their slot.
func (p *Pool) FetchAll(ctx context.Context, srcs []Source) []Result {
	results := make([]Result, len(srcs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Name: src.Name(), Err: ctx.Err()}
				return
			}

			results[i] = p.fetchOne(ctx, src)
		}(i, src)
	}
	wg.Wait()

	return results
}

func (p *Pool) fetchOne(ctx context.Context, src Source) Result {
	name := src.Name()
	start := time.Now()

	preds, err := src.Fetch(ctx)
	elapsed := time.Since(start)
	metrics.RecordSourceFetchDuration(name, float64(elapsed.Milliseconds()))

	if err != nil {
		metrics.RecordSourceFetchError(name)
		metrics.RecordErrorByComponent("sources", name)
		p.logger.Warn(ctx, "source fetch failed",
			logger.String("source", name),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return Result{Name: name, Err: err, Elapsed: elapsed}
	}

	metrics.RecordPredictionsCollected(name, len(preds))
	p.logger.Info(ctx, "source fetch complete",
		logger.String("source", name),
		logger.Int("predictions", len(preds)),
		logger.Duration("elapsed", elapsed),
	)
	return Result{Name: name, Predictions: preds, Elapsed: elapsed}
}
