package dedup

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/model"
)

// unrankedPriority applies to any source not in sourcePriority.
const unrankedPriority = 999

// sourcePriority ranks sources for picking the base record of a merge.
// Lower wins.
var sourcePriority = map[string]int{
	model.SourceSECFormD:          0,
	model.SourceTechCrunch:        1,
	model.SourceVentureBeat:       2,
	model.SourceCBInsights:        3,
	model.SourcePitchBook:         4,
	model.SourceFounderCollective: 5,
}

// SourcePriority returns the merge rank of a source.
func SourcePriority(source string) int {
	if p, ok := sourcePriority[source]; ok {
		return p
	}
	return unrankedPriority
}

// fillRule copies one field from src into dst when dst lacks it. It reports
// whether dst changed.
type fillRule struct {
	field string
	fill  func(dst *model.Company, src model.Company) bool
}

func stringRule(field string, get func(*model.Company) *string) fillRule {
	return fillRule{
		field: field,
		fill: func(dst *model.Company, src model.Company) bool {
			cur, cand := get(dst), *get(&src)
			if *cur != "" || cand == "" {
				return false
			}
			*cur = cand
			return true
		},
	}
}

// amountRule treats zero as missing, so an explicit $0 is replaced by any
// later non-zero amount.
func amountRule(field string, get func(*model.Company) **int64) fillRule {
	return fillRule{
		field: field,
		fill: func(dst *model.Company, src model.Company) bool {
			cur, cand := get(dst), *get(&src)
			if (*cur != nil && **cur != 0) || cand == nil || *cand == 0 {
				return false
			}
			v := *cand
			*cur = &v
			return true
		},
	}
}

var fillRules = []fillRule{
	stringRule("company_website", func(c *model.Company) *string { return &c.Website }),
	stringRule("description", func(c *model.Company) *string { return &c.Description }),
	stringRule("industry", func(c *model.Company) *string { return &c.Industry }),
	stringRule("location", func(c *model.Company) *string { return &c.Location }),
	stringRule("ceo_name", func(c *model.Company) *string { return &c.CEOName }),
	amountRule("funding_amount", func(c *model.Company) **int64 { return &c.FundingAmount }),
}

// genericRounds may be replaced by a more specific label; placeholderRounds
// never replace anything.
var (
	genericRounds     = map[string]bool{"": true, model.RoundUnknown: true, "Equity": true}
	placeholderRounds = map[string]bool{"": true, model.RoundUnknown: true}
)

// Merge folds a non-empty group into one record. A singleton is returned
// unchanged. Otherwise the highest-priority record is the base and later
// records only fill what the base lacks; investors are unioned in
// first-seen order.
func Merge(group []model.Company) model.Company {
	switch len(group) {
	case 0:
		return model.Company{}
	case 1:
		return group[0]
	}

	sorted := make([]model.Company, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return SourcePriority(sorted[i].Source) < SourcePriority(sorted[j].Source)
	})

	merged := sorted[0].Clone()
	merged.Sources = distinctSources(group)

	seen := make(map[string]bool, len(merged.Investors))
	for _, inv := range merged.Investors {
		seen[inv] = true
	}

	for _, c := range sorted[1:] {
		for _, rule := range fillRules {
			if rule.fill(&merged, c) {
				recordProvenance(&merged, rule.field, c.Source)
			}
		}

		for _, inv := range c.Investors {
			if inv == "" || seen[inv] {
				continue
			}
			merged.Investors = append(merged.Investors, inv)
			seen[inv] = true
		}

		if genericRounds[merged.FundingRound] && !placeholderRounds[c.FundingRound] {
			merged.FundingRound = c.FundingRound
			recordProvenance(&merged, "funding_round", c.Source)
		}
	}

	zap.L().Debug("dedup: merged group",
		zap.String("company", merged.Name),
		zap.Int("records", len(group)),
		zap.Strings("sources", merged.Sources),
	)

	return merged
}

func recordProvenance(c *model.Company, field, source string) {
	if source == "" {
		return
	}
	if c.Provenance == nil {
		c.Provenance = make(map[string]string)
	}
	c.Provenance[field] = source
}

// distinctSources returns the non-empty sources of a group ordered by
// priority, then name.
func distinctSources(group []model.Company) []string {
	set := make(map[string]bool, len(group))
	out := make([]string, 0, len(group))
	for _, c := range group {
		if c.Source == "" || set[c.Source] {
			continue
		}
		set[c.Source] = true
		out = append(out, c.Source)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := SourcePriority(out[i]), SourcePriority(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}
