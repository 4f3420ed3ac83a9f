package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/pkg/google"
)

// DefaultPlacesMatch is the minimum name similarity between a company and a
// Places listing before the listing's website is trusted.
const DefaultPlacesMatch = 85.0

// PlacesFinder reads the website off a matching Google Places listing.
type PlacesFinder struct {
	client    google.Client
	retry     resilience.RetryConfig
	threshold float64
}

// NewPlacesFinder creates a Places-backed finder. A threshold <= 0 uses
// DefaultPlacesMatch.
func NewPlacesFinder(client google.Client, retry resilience.RetryConfig, threshold float64) *PlacesFinder {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("google", "text_search")
	}
	if threshold <= 0 {
		threshold = DefaultPlacesMatch
	}
	return &PlacesFinder{client: client, retry: retry, threshold: threshold}
}

// FindWebsite implements WebsiteFinder.
func (f *PlacesFinder) FindWebsite(ctx context.Context, c model.Company) (string, error) {
	query := strings.TrimSpace(c.Name + " " + c.Location)

	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*google.TextSearchResponse, error) {
		return f.client.TextSearch(ctx, google.TextSearchRequest{TextQuery: query, RegionCode: "US"})
	})
	if err != nil {
		return "", eris.Wrapf(err, "enrich: places lookup for %s", c.Name)
	}

	want := dedup.Normalize(c.Name)
	for _, p := range resp.Places {
		if dedup.Similarity(want, dedup.Normalize(p.Name())) < f.threshold {
			continue
		}
		if site := strings.TrimRight(p.WebsiteURI, "/"); IsValidWebsite(site) {
			return site, nil
		}
	}
	return "", nil
}

// Guard runs a finder behind its own circuit breaker.
func Guard(f WebsiteFinder, cb *resilience.CircuitBreaker) WebsiteFinder {
	return guardedFinder{finder: f, breaker: cb}
}

type guardedFinder struct {
	finder  WebsiteFinder
	breaker *resilience.CircuitBreaker
}

func (g guardedFinder) FindWebsite(ctx context.Context, c model.Company) (string, error) {
	return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return g.finder.FindWebsite(ctx, c)
	})
}

// ChainFinder tries each finder in order and returns the first website
// found. A finder whose circuit is open counts as a miss; ErrCircuitOpen is
// returned only when every finder's circuit is open. Other errors are
// returned only when no later finder succeeds.
type ChainFinder []WebsiteFinder

// FindWebsite implements WebsiteFinder.
func (ch ChainFinder) FindWebsite(ctx context.Context, c model.Company) (string, error) {
	var firstErr error
	open := 0
	for _, f := range ch {
		site, err := f.FindWebsite(ctx, c)
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			open++
		case err != nil:
			if ctx.Err() != nil {
				return "", err
			}
			if firstErr == nil {
				firstErr = err
			}
		case site != "":
			return site, nil
		}
	}
	if open > 0 && open == len(ch) {
		return "", resilience.ErrCircuitOpen
	}
	return "", firstErr
}
