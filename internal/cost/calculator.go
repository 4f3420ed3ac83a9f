// Package cost estimates the API spend of a run.
package cost

import "github.com/sells-group/funding-cli/internal/config"

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64
	Output float64
}

// Rates holds per-provider pricing.
type Rates struct {
	Anthropic          map[string]ModelRate
	PerplexityPerQuery float64
}

// DefaultRates returns the built-in pricing.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {Input: 1.00, Output: 5.00},
		},
		PerplexityPerQuery: 0.005,
	}
}

// RatesFromConfig overlays configured pricing on the defaults.
func RatesFromConfig(p config.PricingConfig) Rates {
	r := DefaultRates()
	if p.Perplexity.PerQuery > 0 {
		r.PerplexityPerQuery = p.Perplexity.PerQuery
	}
	for model, mp := range p.Anthropic {
		r.Anthropic[model] = ModelRate{Input: mp.Input, Output: mp.Output}
	}
	return r
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude returns the cost of a Claude call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Perplexity returns the cost of n Perplexity queries.
func (c *Calculator) Perplexity(n int) float64 {
	return float64(n) * c.rates.PerplexityPerQuery
}
