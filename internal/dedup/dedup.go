package dedup

import (
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/model"
)

// DefaultThreshold is the minimum similarity for two names to match.
const DefaultThreshold = 85.0

// Options configures an Engine.
type Options struct {
	// Threshold is the minimum Similarity score, in [0, 100], for a record
	// to join a seed's group. Zero means DefaultThreshold.
	Threshold float64
}

// Engine deduplicates company records. It holds no state between calls.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Engine{opts: opts}
}

// Threshold returns the effective match threshold.
func (e *Engine) Threshold() float64 {
	return e.opts.Threshold
}

// Deduplicate groups companies and merges each group, returning one record
// per group in group-creation order.
func (e *Engine) Deduplicate(companies []model.Company) []model.Company {
	out := make([]model.Company, 0, len(companies))
	if len(companies) == 0 {
		return out
	}

	for _, group := range e.Group(companies) {
		out = append(out, Merge(group))
	}

	zap.L().Info("dedup: complete",
		zap.Int("input", len(companies)),
		zap.Int("output", len(out)),
		zap.Int("removed", len(companies)-len(out)),
	)

	return out
}

// Deduplicate runs an Engine with the default threshold.
func Deduplicate(companies []model.Company) []model.Company {
	return New(Options{}).Deduplicate(companies)
}
