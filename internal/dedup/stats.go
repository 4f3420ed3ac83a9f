package dedup

import "github.com/sells-group/funding-cli/internal/model"

// Stats counts what a deduplication pass did.
func Stats(original, deduplicated []model.Company) model.DedupStats {
	bySource := make(map[string]int)
	for _, c := range original {
		src := c.Source
		if src == "" {
			src = "Unknown"
		}
		bySource[src]++
	}

	merged := 0
	for _, c := range deduplicated {
		if c.IsMerged() {
			merged++
		}
	}

	return model.DedupStats{
		OriginalCount:              len(original),
		DeduplicatedCount:          len(deduplicated),
		DuplicatesRemoved:          len(original) - len(deduplicated),
		CompaniesWithMergedSources: merged,
		OriginalBySource:           bySource,
	}
}
