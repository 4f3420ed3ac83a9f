package cost

import "sync"

// Usage is a snapshot of the API calls made during a run.
type Usage struct {
	PerplexityQueries int                    `json:"perplexity_queries"`
	ClaudeTokens      map[string]TokenCounts `json:"claude_tokens,omitempty"`
}

// TokenCounts are the tokens billed for one model.
type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

// Tracker accumulates usage across goroutines. The zero value is not usable;
// call NewTracker. A nil *Tracker ignores all calls.
type Tracker struct {
	mu      sync.Mutex
	queries int
	tokens  map[string]TokenCounts
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{tokens: make(map[string]TokenCounts)}
}

// AddPerplexityQuery records one Perplexity request.
func (t *Tracker) AddPerplexityQuery() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.queries++
	t.mu.Unlock()
}

// AddClaudeTokens records the tokens billed for one Claude request.
func (t *Tracker) AddClaudeTokens(model string, input, output int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	tc := t.tokens[model]
	tc.Input += input
	tc.Output += output
	t.tokens[model] = tc
	t.mu.Unlock()
}

// Usage returns a copy of the accumulated usage.
func (t *Tracker) Usage() Usage {
	if t == nil {
		return Usage{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u := Usage{PerplexityQueries: t.queries}
	if len(t.tokens) > 0 {
		u.ClaudeTokens = make(map[string]TokenCounts, len(t.tokens))
		for k, v := range t.tokens {
			u.ClaudeTokens[k] = v
		}
	}
	return u
}

// Estimate prices the usage.
func (c *Calculator) Estimate(u Usage) float64 {
	total := c.Perplexity(u.PerplexityQueries)
	for model, tc := range u.ClaudeTokens {
		total += c.Claude(model, tc.Input, tc.Output)
	}
	return total
}
