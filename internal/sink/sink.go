// Package sink delivers final company records to downstream systems.
package sink

import (
	"context"

	"github.com/sells-group/funding-cli/internal/model"
)

// Sink receives the deduplicated records of a run.
type Sink interface {
	Name() string
	// Deliver hands every record to the sink. Per-record failures are
	// counted in the result; an error means delivery could not proceed.
	Deliver(ctx context.Context, companies []model.Company) (model.DeliveryResult, error)
}
