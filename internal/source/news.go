package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/funding-cli/internal/cost"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/pkg/perplexity"
)

// NewsSourceName labels the aggregate news source in collection results.
// Individual records carry their outlet as Source.
const NewsSourceName = "Funding News"

const newsSystemPrompt = "You are a financial research assistant that finds and reports on startup funding announcements. Always return data in valid JSON format."

const newsSchema = `
Return ONLY a valid JSON array with objects containing these exact fields:
{
  "company_name": "string",
  "funding_amount": number or null,
  "funding_round": "string",
  "investors": ["array of investor names"],
  "industry": "string",
  "description": "string",
  "location": "string"
}
`

// Outlet is one news site searched through Perplexity.
type Outlet struct {
	Name   string
	Prompt string
}

// DefaultOutlets returns the five outlets searched on every run, in
// priority order.
func DefaultOutlets() []Outlet {
	return []Outlet{
		{
			Name: model.SourceTechCrunch,
			Prompt: `Search TechCrunch for US-based startup funding announcements from the last 30 days.
List each company that raised funding with:
- Company name
- Funding amount (in USD)
- Funding round (Seed, Series A, B, C, etc.)
- Lead investors
- Company industry/sector
- Brief company description
- Headquarters location
` + newsSchema + `
Include at least 10-15 companies if available. Return ONLY the JSON array, no other text.`,
		},
		{
			Name: model.SourceVentureBeat,
			Prompt: `Search VentureBeat for venture capital and startup funding announcements from the last 30 days for US-based companies.
List each company that announced funding with:
- Company name
- Funding amount (in USD)
- Funding round type
- Investors
- Industry/sector
- Brief description
- Location
` + newsSchema + `
Include at least 10-15 companies if available. Return ONLY the JSON array, no other text.`,
		},
		{
			Name: model.SourceCBInsights,
			Prompt: `Search CB Insights for recent startup funding rounds and deals from the last 30 days for US-based companies.
List companies that received funding with:
- Company name
- Funding amount
- Round type (Seed, Series A, B, etc.)
- Investors
- Industry
- Description
- Location
` + newsSchema + `
Include at least 10-15 companies if available. Return ONLY the JSON array, no other text.`,
		},
		{
			Name: model.SourcePitchBook,
			Prompt: `Search PitchBook and related news for recent private equity and venture capital deals from the last 30 days involving US-based companies.
List companies that raised funding with:
- Company name
- Deal size/funding amount
- Round type
- Investors
- Sector/Industry
- Description
- Location
` + newsSchema + `
Include at least 10-15 companies if available. Return ONLY the JSON array, no other text.`,
		},
		{
			Name: model.SourceFounderCollective,
			Prompt: `Search for recent funding announcements from Founder Collective portfolio companies and other notable early-stage startups from the last 30 days.
Focus on US-based companies that announced funding rounds.
List companies with:
- Company name
- Funding amount
- Round type
- Investors
- Industry
- Description
- Location
` + newsSchema + `
Include at least 5-10 companies if available. Return ONLY the JSON array, no other text.`,
		},
	}
}

// NewsOptions configures NewsSource.
type NewsOptions struct {
	Outlets     []Outlet
	Temperature float64
	MaxTokens   int
	// Delay is the minimum spacing between outlet queries.
	Delay time.Duration
	Retry resilience.RetryConfig
	// Repairer, when set, reformats answers whose JSON cannot be extracted.
	Repairer Repairer
	Tracker  *cost.Tracker
	Now      func() time.Time
}

// NewsSource asks Perplexity for recent funding announcements per outlet.
type NewsSource struct {
	client  perplexity.Client
	opts    NewsOptions
	limiter *rate.Limiter
}

// NewNewsSource creates a news source.
func NewNewsSource(client perplexity.Client, opts NewsOptions) *NewsSource {
	if len(opts.Outlets) == 0 {
		opts.Outlets = DefaultOutlets()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("perplexity", "funding_news")
	}
	return &NewsSource{client: client, opts: opts, limiter: newLimiter(opts.Delay)}
}

// Name implements Source.
func (s *NewsSource) Name() string { return NewsSourceName }

// Fetch queries each outlet in turn. An outlet that fails contributes no
// records; an error is returned only when every outlet failed.
func (s *NewsSource) Fetch(ctx context.Context) ([]model.Company, error) {
	var all []model.Company
	var errs []error

	for _, outlet := range s.opts.Outlets {
		if err := s.limiter.Wait(ctx); err != nil {
			return all, eris.Wrap(err, "source: news rate limit")
		}

		companies, err := s.FetchOutlet(ctx, outlet)
		if err != nil {
			zap.L().Warn("source: outlet failed",
				zap.String("source", outlet.Name),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}

		zap.L().Info("source: outlet fetched",
			zap.String("source", outlet.Name),
			zap.Int("companies", len(companies)),
		)
		all = append(all, companies...)
	}

	if len(errs) > 0 && len(errs) == len(s.opts.Outlets) {
		return nil, eris.Wrap(errors.Join(errs...), "source: every news outlet failed")
	}
	return all, nil
}

// FetchOutlet queries a single outlet and parses its answer.
func (s *NewsSource) FetchOutlet(ctx context.Context, outlet Outlet) ([]model.Company, error) {
	req := perplexity.Prompt(newsSystemPrompt, outlet.Prompt, s.opts.Temperature, s.opts.MaxTokens)

	resp, err := resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		s.opts.Tracker.AddPerplexityQuery()
		return s.client.ChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: query %s", outlet.Name)
	}

	today := s.opts.Now().Format(time.DateOnly)
	companies, err := ParseNews(resp.Content(), outlet.Name, today)
	if err == nil || s.opts.Repairer == nil {
		return companies, err
	}

	zap.L().Info("source: repairing news answer", zap.String("source", outlet.Name), zap.Error(err))
	repaired, rerr := s.opts.Repairer.Repair(ctx, resp.Content())
	if rerr != nil {
		return nil, eris.Wrapf(rerr, "source: repair %s answer", outlet.Name)
	}
	return ParseNews(repaired, outlet.Name, today)
}

// ParseNews extracts company records from an answer. Items without a
// company name are dropped.
func ParseNews(answer, source, today string) ([]model.Company, error) {
	payload, ok := ExtractJSON(answer)
	if !ok {
		return nil, eris.New("source: no json in answer")
	}

	items, err := decodeItems(payload)
	if err != nil {
		return nil, err
	}

	companies := make([]model.Company, 0, len(items))
	for _, item := range items {
		if c, ok := NormalizeNewsItem(item, source, today); ok {
			companies = append(companies, c)
		}
	}
	return companies, nil
}

// NormalizeNewsItem maps one decoded answer item to a company record.
func NormalizeNewsItem(item map[string]any, source, today string) (model.Company, bool) {
	name := strings.TrimSpace(stringField(item, "company_name"))
	if name == "" {
		return model.Company{}, false
	}

	round := strings.TrimSpace(stringField(item, "funding_round"))
	if round == "" {
		round = model.RoundUnknown
	}

	investors := listField(item["investors"])

	return model.Company{
		Name:             name,
		FundingAmount:    moneyOf(item["funding_amount"]),
		FundingRound:     round,
		Investors:        investors,
		Industry:         stringField(item, "industry"),
		Location:         stringField(item, "location"),
		Source:           source,
		AnnouncementDate: today,
		Description:      stringField(item, "description"),
		Executives:       []string{},
		TotalInvestors:   len(investors),
	}, true
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

// listField accepts a list of strings or one comma-separated string.
func listField(v any) []string {
	out := []string{}
	switch inv := v.(type) {
	case string:
		for _, part := range strings.Split(inv, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case []any:
		for _, e := range inv {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
