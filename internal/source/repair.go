package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/cost"
	"github.com/sells-group/funding-cli/pkg/anthropic"
)

// Repairer rewrites a noisy answer into a bare JSON array.
type Repairer interface {
	Repair(ctx context.Context, text string) (string, error)
}

const repairSystemPrompt = `You convert text describing startup funding rounds into JSON.
Return ONLY a JSON array of objects with the fields company_name, funding_amount,
funding_round, investors, industry, description and location. Use null for
unknown values. Do not add companies that are not in the text.`

const maxRepairInput = 24000

// ClaudeRepairer asks Claude to reformat an answer.
type ClaudeRepairer struct {
	client  anthropic.Client
	model   string
	tracker *cost.Tracker
}

// NewClaudeRepairer creates a repairer. tracker may be nil.
func NewClaudeRepairer(client anthropic.Client, model string, tracker *cost.Tracker) *ClaudeRepairer {
	return &ClaudeRepairer{client: client, model: model, tracker: tracker}
}

// Repair implements Repairer.
func (r *ClaudeRepairer) Repair(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", eris.New("source: nothing to repair")
	}
	if len(text) > maxRepairInput {
		text = text[:maxRepairInput]
	}

	temp := 0.0
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   4096,
		System:      repairSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "source: repair request")
	}
	r.tracker.AddClaudeTokens(r.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	out := resp.Text()
	if _, ok := ExtractJSON(out); !ok {
		return "", eris.New("source: repair returned no json")
	}
	return out, nil
}
