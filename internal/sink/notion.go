package sink

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/pkg/notion"
)

// NotionSink creates one database page per company.
type NotionSink struct {
	client     notion.Client
	databaseID string
}

// NewNotionSink creates a Notion sink for the given database.
func NewNotionSink(client notion.Client, databaseID string) *NotionSink {
	return &NotionSink{client: client, databaseID: databaseID}
}

// Name implements Sink.
func (s *NotionSink) Name() string { return "notion" }

// Deliver implements Sink. It stops early only when ctx is done.
func (s *NotionSink) Deliver(ctx context.Context, companies []model.Company) (model.DeliveryResult, error) {
	res := model.DeliveryResult{Sink: s.Name()}
	for i, c := range companies {
		if err := ctx.Err(); err != nil {
			res.Failed += len(companies) - i
			return res, err
		}

		if _, err := s.client.CreatePage(ctx, notion.DatabasePage(s.databaseID, PageProperties(c))); err != nil {
			res.Failed++
			zap.L().Warn("sink: notion page failed", zap.String("company", c.Name), zap.Error(err))
			continue
		}
		res.Successful++
	}

	zap.L().Info("sink: notion delivery complete",
		zap.Int("successful", res.Successful),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// PageProperties maps a company to the funding database's columns.
func PageProperties(c model.Company) notion.Properties {
	props := notion.Properties{}.
		Title("Company", c.Name).
		URL("Website", c.Website).
		Number("Funding Amount", c.FundingAmount).
		Select("Funding Round", c.FundingRound).
		Text("Investors", joinList(c.Investors)).
		Text("Industry", c.Industry).
		Text("Location", c.Location).
		MultiSelect("Sources", c.SourceSet()).
		Date("Announced", c.AnnouncementDate).
		Text("Description", c.Description).
		Text("CEO", c.CEOName).
		Text("Phone", c.Phone).
		URL("LinkedIn", c.LinkedInURL).
		URL("SEC Filing", c.SECFilingURL)
	if c.FoundingYear != nil {
		props = props.Text("Founded", strconv.Itoa(*c.FoundingYear))
	}
	return props
}
