package sink

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/model"
)

var printer = message.NewPrinter(language.English)

const rule = "============================================================"

// FormatAmount renders whole dollars with thousands separators, or
// "undisclosed".
func FormatAmount(amount *int64) string {
	if amount == nil {
		return "undisclosed"
	}
	return printer.Sprintf("$%d", *amount)
}

// Summary renders the end-of-run report.
func Summary(r *model.RunResult) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(printer.Sprintf(format, args...))
		b.WriteByte('\n')
	}

	line(rule)
	line("FUNDING RUN SUMMARY")
	line(rule)
	if r.RunID != "" {
		line("Run: %s", r.RunID)
	}

	line("")
	line("Data Sources:")
	line("  SEC Form D filings: %d", r.FilingCount)
	line("  News sources: %d", r.NewsCount)
	for _, src := range sortedSources(r.Stats.OriginalBySource) {
		line("    - %s: %d", src, r.Stats.OriginalBySource[src])
	}

	line("")
	line("Processing:")
	line("  Total before dedup: %d", r.Stats.OriginalCount)
	line("  After deduplication: %d", r.Stats.DeduplicatedCount)
	line("  Duplicates removed: %d", r.Stats.DuplicatesRemoved)
	line("  Merged from multiple sources: %d", r.Stats.CompaniesWithMergedSources)
	if r.Lookups > 0 {
		line("  Website lookups: %d (%d found)", r.Lookups, r.Enriched)
	}
	line("  With website: %d", r.WithWebsite)

	if len(r.Deliveries) > 0 {
		line("")
		line("Delivery:")
		for _, d := range r.Deliveries {
			line("  %s: %d sent, %d failed", d.Sink, d.Successful, d.Failed)
		}
	}
	if r.Exported > 0 {
		line("  Exported: %d", r.Exported)
	}

	line("")
	line("Estimated API cost: $%.4f", r.EstimatedCost)
	if !r.FinishedAt.IsZero() {
		line("Duration: %s", r.Duration().Round(time.Millisecond))
	}
	line(rule)
	return b.String()
}

// sortedSources orders sources by merge priority, then name.
func sortedSources(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for s := range counts {
		names = append(names, s)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := dedup.SourcePriority(names[i]), dedup.SourcePriority(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}
