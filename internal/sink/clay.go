package sink

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/pkg/clay"
)

// ClayOptions configures ClaySink.
type ClayOptions struct {
	// BatchSize is the number of records per request. 1 sends each record
	// as a bare object; larger sizes send arrays.
	BatchSize int
	// Delay is the minimum spacing between requests.
	Delay time.Duration
	Retry resilience.RetryConfig
}

// ClaySink posts records to a Clay table webhook.
type ClaySink struct {
	client  clay.Client
	opts    ClayOptions
	limiter *rate.Limiter
}

// NewClaySink creates a webhook sink. Retries back off linearly and cover
// every failure, not only transient ones.
func NewClaySink(client clay.Client, opts ClayOptions) *ClaySink {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	opts.Retry.Backoff = resilience.BackoffLinear
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = func(error) bool { return true }
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("clay", "send")
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	return &ClaySink{client: client, opts: opts, limiter: rate.NewLimiter(limit, 1)}
}

// Name implements Sink.
func (s *ClaySink) Name() string { return "clay" }

// Deliver implements Sink. A batch that still fails after retries counts
// all of its records as failed.
func (s *ClaySink) Deliver(ctx context.Context, companies []model.Company) (model.DeliveryResult, error) {
	res := model.DeliveryResult{Sink: s.Name()}
	size := s.opts.BatchSize
	total := (len(companies) + size - 1) / size

	for start := 0; start < len(companies); start += size {
		batch := companies[start:min(start+size, len(companies))]
		if err := s.limiter.Wait(ctx); err != nil {
			res.Failed += len(companies) - start
			return res, eris.Wrap(err, "sink: clay rate limit")
		}

		log := zap.L().With(zap.Int("batch", start/size+1), zap.Int("batches", total))
		if size == 1 {
			log = log.With(zap.String("company", batch[0].Name))
		}

		err := resilience.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
			return s.client.Send(ctx, Body(batch))
		})
		if err != nil {
			res.Failed += len(batch)
			log.Warn("sink: clay send failed", zap.Int("records", len(batch)), zap.Error(err))
			continue
		}
		res.Successful += len(batch)
		log.Debug("sink: clay sent", zap.Int("records", len(batch)))
	}

	zap.L().Info("sink: clay delivery complete",
		zap.Int("successful", res.Successful),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// Body is the request body for a batch: a bare record for a batch of one,
// otherwise an array.
func Body(batch []model.Company) any {
	records := Payload(batch)
	if len(records) == 1 {
		return records[0]
	}
	return records
}

// Payload converts companies to webhook records.
func Payload(companies []model.Company) []clay.Record {
	out := make([]clay.Record, len(companies))
	for i, c := range companies {
		out[i] = RecordFor(c)
	}
	return out
}

// RecordFor converts one company. Lists are joined with ", " and merged
// sources collapse into a single source label.
func RecordFor(c model.Company) clay.Record {
	return clay.Record{
		CompanyName:      c.Name,
		CompanyWebsite:   c.Website,
		FundingAmount:    c.FundingAmount,
		FundingRound:     c.FundingRound,
		Investors:        joinList(c.Investors),
		Industry:         c.Industry,
		Location:         c.Location,
		FoundingYear:     c.FoundingYear,
		Source:           c.SourceLabel(),
		AnnouncementDate: c.AnnouncementDate,
		Description:      c.Description,
		CEOName:          c.CEOName,
		Executives:       joinList(c.Executives),
		Phone:            c.Phone,
		LinkedInURL:      c.LinkedInURL,
		SECFilingURL:     c.SECFilingURL,
	}
}

func joinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ", ")
}

// TestWebhook posts the test record, wrapped in an array, once.
func TestWebhook(ctx context.Context, client clay.Client) error {
	if err := client.Send(ctx, []map[string]any{clay.TestRecord()}); err != nil {
		return eris.Wrap(err, "sink: webhook test")
	}
	return nil
}
