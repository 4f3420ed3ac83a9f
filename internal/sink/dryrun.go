package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/model"
)

// dryRunSample is the number of records logged by a dry run.
const dryRunSample = 5

// DryRunSink delivers nothing; it logs a sample and reports every record as
// sent.
type DryRunSink struct{}

// Name implements Sink.
func (DryRunSink) Name() string { return "dry-run" }

// Deliver implements Sink.
func (d DryRunSink) Deliver(_ context.Context, companies []model.Company) (model.DeliveryResult, error) {
	for _, c := range companies[:min(dryRunSample, len(companies))] {
		zap.L().Info("sink: dry run sample",
			zap.String("company", c.Name),
			zap.String("amount", FormatAmount(c.FundingAmount)),
			zap.String("round", c.FundingRound),
			zap.String("source", c.SourceLabel()),
			zap.String("website", c.Website),
		)
	}
	return model.DeliveryResult{Sink: d.Name(), Successful: len(companies)}, nil
}
