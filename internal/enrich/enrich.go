// Package enrich fills in missing company websites.
package enrich

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
)

// DefaultMaxLookups caps website lookups per run.
const DefaultMaxLookups = 50

// Options configures an Enricher.
type Options struct {
	MaxLookups int
	// Delay is the minimum spacing between lookups.
	Delay   time.Duration
	Breaker *resilience.CircuitBreaker
}

// Result tallies an enrichment pass.
type Result struct {
	// Lookups is the number of finder calls attempted.
	Lookups int `json:"lookups"`
	// Enriched is the number of records that gained a website.
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
	// Remaining counts records still without a website afterwards.
	Remaining int `json:"remaining"`
	// Stopped is set when the lookup cap or an open circuit ended the pass.
	Stopped bool `json:"stopped"`
}

// Enricher looks up websites for records that lack one.
type Enricher struct {
	finder  WebsiteFinder
	opts    Options
	limiter *rate.Limiter
}

// New creates an Enricher.
func New(finder WebsiteFinder, opts Options) *Enricher {
	if opts.MaxLookups <= 0 {
		opts.MaxLookups = DefaultMaxLookups
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	return &Enricher{finder: finder, opts: opts, limiter: rate.NewLimiter(limit, 1)}
}

// Enrich returns a copy of companies with websites filled in, in the same
// order. Records that already have a website or have no name are skipped.
// A website is only ever set, never replaced.
func (e *Enricher) Enrich(ctx context.Context, companies []model.Company) ([]model.Company, Result) {
	out := make([]model.Company, len(companies))
	copy(out, companies)

	var res Result
	for i := range out {
		c := &out[i]
		if c.HasWebsite() || strings.TrimSpace(c.Name) == "" {
			continue
		}
		if res.Lookups >= e.opts.MaxLookups {
			res.Stopped = true
			break
		}
		if err := e.limiter.Wait(ctx); err != nil {
			res.Stopped = true
			break
		}

		res.Lookups++
		website, err := resilience.ExecuteVal(ctx, e.opts.Breaker, func(ctx context.Context) (string, error) {
			return e.finder.FindWebsite(ctx, *c)
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			res.Lookups--
			res.Stopped = true
			zap.L().Warn("enrich: circuit open, stopping lookups", zap.Int("lookups", res.Lookups))
			break
		}
		if err != nil {
			res.Failed++
			zap.L().Warn("enrich: lookup failed", zap.String("company", c.Name), zap.Error(err))
			continue
		}
		if website == "" {
			zap.L().Debug("enrich: website not found", zap.String("company", c.Name))
			continue
		}

		c.Website = website
		res.Enriched++
		zap.L().Info("enrich: website found",
			zap.String("company", c.Name),
			zap.String("website", website),
		)
	}

	for _, c := range out {
		if !c.HasWebsite() {
			res.Remaining++
		}
	}

	zap.L().Info("enrich: complete",
		zap.Int("lookups", res.Lookups),
		zap.Int("enriched", res.Enriched),
		zap.Int("remaining", res.Remaining),
	)
	return out, res
}
