package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/cost"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/pkg/perplexity"
)

// WebsiteFinder looks up a company's official website. It returns "" when
// none was found.
type WebsiteFinder interface {
	FindWebsite(ctx context.Context, c model.Company) (string, error)
}

const finderSystemPrompt = "You are a research assistant that finds company websites. Return only the URL, nothing else."

const finderPrompt = `What is the official company website URL for "%s" %s?

Return ONLY the website URL, nothing else. If you cannot find the official website, return "NOT_FOUND".

Example response: https://www.example.com`

// PerplexityFinder asks Perplexity for a company's website.
type PerplexityFinder struct {
	client  perplexity.Client
	retry   resilience.RetryConfig
	tracker *cost.Tracker
}

// NewPerplexityFinder creates a finder. tracker may be nil.
func NewPerplexityFinder(client perplexity.Client, retry resilience.RetryConfig, tracker *cost.Tracker) *PerplexityFinder {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("perplexity", "find_website")
	}
	return &PerplexityFinder{client: client, retry: retry, tracker: tracker}
}

// FindWebsite implements WebsiteFinder.
func (f *PerplexityFinder) FindWebsite(ctx context.Context, c model.Company) (string, error) {
	req := perplexity.Prompt(finderSystemPrompt, WebsitePrompt(c), 0.1, 200)

	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		f.tracker.AddPerplexityQuery()
		return f.client.ChatCompletion(ctx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "enrich: find website for %s", c.Name)
	}
	return ExtractWebsite(resp.Content()), nil
}

// WebsitePrompt builds the lookup question, qualified by industry and
// location when known.
func WebsitePrompt(c model.Company) string {
	var parts []string
	if c.Industry != "" {
		parts = append(parts, "in the "+c.Industry+" industry")
	}
	if c.Location != "" {
		parts = append(parts, "based in "+c.Location)
	}
	qualifier := "that recently raised funding"
	if len(parts) > 0 {
		qualifier = strings.Join(parts, " ")
	}
	return fmt.Sprintf(finderPrompt, c.Name, qualifier)
}
