// Package source adapts external feeds (SEC Form D filings, funding news,
// record files) into model.Company observations.
package source

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/funding-cli/internal/model"
)

// Source produces raw company observations.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Company, error)
}

// Result is one source's contribution to a collection pass.
type Result struct {
	Source    string
	Companies []model.Company
	Err       error
	Duration  time.Duration
}

// Collect fetches every source concurrently. A failing source contributes
// the records it returned (usually none) and its error is recorded in its
// Result; it never aborts the others. The concatenated records keep the
// order of sources.
func Collect(ctx context.Context, sources ...Source) ([]model.Company, []Result) {
	results := make([]Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			companies, err := src.Fetch(ctx)
			results[i] = Result{
				Source:    src.Name(),
				Companies: companies,
				Err:       err,
				Duration:  time.Since(start),
			}

			if err != nil {
				zap.L().Warn("source: fetch failed",
					zap.String("source", src.Name()),
					zap.Int("partial", len(companies)),
					zap.Error(err),
				)
				return nil
			}
			zap.L().Info("source: fetched",
				zap.String("source", src.Name()),
				zap.Int("companies", len(companies)),
				zap.Duration("duration", results[i].Duration),
			)
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Company
	for _, r := range results {
		all = append(all, r.Companies...)
	}
	return all, results
}

// newLimiter spaces calls at least delay apart. The first call is free.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
