// Package model defines the company records exchanged between sources, the
// deduplication engine, enrichment and sinks.
package model

import "strings"

// Canonical source names.
const (
	SourceSECFormD          = "SEC Form D"
	SourceTechCrunch        = "TechCrunch"
	SourceVentureBeat       = "VentureBeat"
	SourceCBInsights        = "CB Insights"
	SourcePitchBook         = "PitchBook"
	SourceFounderCollective = "Founder Collective Portfolio"
)

// RoundUnknown is the funding round used when none can be determined.
const RoundUnknown = "Unknown"

// Company is a funded-company observation. A record produced by a source
// carries a single Source; a record folded from several observations also
// carries the distinct Sources of its constituents.
type Company struct {
	Name             string   `json:"company_name" yaml:"company_name"`
	Website          string   `json:"company_website,omitempty" yaml:"company_website,omitempty"`
	FundingAmount    *int64   `json:"funding_amount,omitempty" yaml:"funding_amount,omitempty"`
	AmountSold       *int64   `json:"amount_sold,omitempty" yaml:"amount_sold,omitempty"`
	FundingRound     string   `json:"funding_round" yaml:"funding_round"`
	Investors        []string `json:"investors" yaml:"investors"`
	Industry         string   `json:"industry" yaml:"industry"`
	Location         string   `json:"location" yaml:"location"`
	FoundingYear     *int     `json:"founding_year,omitempty" yaml:"founding_year,omitempty"`
	Source           string   `json:"source" yaml:"source"`
	AnnouncementDate string   `json:"announcement_date" yaml:"announcement_date"`
	Description      string   `json:"description" yaml:"description"`
	CEOName          string   `json:"ceo_name,omitempty" yaml:"ceo_name,omitempty"`
	Executives       []string `json:"executives" yaml:"executives"`
	Phone            string   `json:"phone" yaml:"phone"`
	LinkedInURL      string   `json:"linkedin_url,omitempty" yaml:"linkedin_url,omitempty"`
	SECFilingURL     string   `json:"sec_filing_url,omitempty" yaml:"sec_filing_url,omitempty"`
	TotalInvestors   int      `json:"total_investors" yaml:"total_investors"`

	// Sources is set only on records merged from two or more observations.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Provenance maps a field name to the source that filled it during a
	// merge, for fields not taken from the base record.
	Provenance map[string]string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// IsMerged reports whether the record was folded from several observations.
func (c Company) IsMerged() bool {
	return len(c.Sources) > 0
}

// SourceSet returns the distinct sources behind the record.
func (c Company) SourceSet() []string {
	if len(c.Sources) > 0 {
		return c.Sources
	}
	if c.Source == "" {
		return nil
	}
	return []string{c.Source}
}

// SourceLabel renders the record's provenance as a single string: merged
// sources joined by ", ", else the scalar source, else "Unknown".
func (c Company) SourceLabel() string {
	if len(c.Sources) > 0 {
		return strings.Join(c.Sources, ", ")
	}
	if c.Source != "" {
		return c.Source
	}
	return "Unknown"
}

// HasWebsite reports whether a website is known.
func (c Company) HasWebsite() bool {
	return strings.TrimSpace(c.Website) != ""
}

// Clone returns a deep copy so callers can mutate the result without
// touching the original's slices, pointers or maps.
func (c Company) Clone() Company {
	out := c
	out.FundingAmount = cloneInt64(c.FundingAmount)
	out.AmountSold = cloneInt64(c.AmountSold)
	if c.FoundingYear != nil {
		y := *c.FoundingYear
		out.FoundingYear = &y
	}
	out.Investors = cloneStrings(c.Investors)
	out.Executives = cloneStrings(c.Executives)
	out.Sources = cloneStrings(c.Sources)
	if c.Provenance != nil {
		out.Provenance = make(map[string]string, len(c.Provenance))
		for k, v := range c.Provenance {
			out.Provenance[k] = v
		}
	}
	return out
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// DedupStats summarizes a deduplication pass.
type DedupStats struct {
	OriginalCount              int            `json:"original_count"`
	DeduplicatedCount          int            `json:"deduplicated_count"`
	DuplicatesRemoved          int            `json:"duplicates_removed"`
	CompaniesWithMergedSources int            `json:"companies_with_merged_sources"`
	OriginalBySource           map[string]int `json:"original_by_source"`
}
