package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/model"
)

func names(groups [][]model.Company) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		for _, c := range g {
			out[i] = append(out[i], c.Name)
		}
	}
	return out
}

func TestGroup_SeedAnchoredNotTransitive(t *testing.T) {
	t.Parallel()

	// brightpath~brightpathway (87) and brightpathway~brightpathways (96),
	// but brightpath~brightpathways is only 83.
	companies := []model.Company{
		{Name: "Brightpath", Source: model.SourceTechCrunch},
		{Name: "Brightpathway", Source: model.SourceVentureBeat},
		{Name: "Brightpathways", Source: model.SourcePitchBook},
	}

	groups := New(Options{}).Group(companies)
	assert.Equal(t, [][]string{
		{"Brightpath", "Brightpathway"},
		{"Brightpathways"},
	}, names(groups))
}

func TestGroup_InputOrderChangesGroups(t *testing.T) {
	t.Parallel()

	// Seeding with the middle record pulls in both neighbours.
	companies := []model.Company{
		{Name: "Brightpathway"},
		{Name: "Brightpath"},
		{Name: "Brightpathways"},
	}

	groups := New(Options{}).Group(companies)
	assert.Equal(t, [][]string{{"Brightpathway", "Brightpath", "Brightpathways"}}, names(groups))
}

func TestGroup_SuffixVariantsJoin(t *testing.T) {
	t.Parallel()

	companies := []model.Company{
		{Name: "OpenAI, Inc.", Source: model.SourceSECFormD},
		{Name: "Stripe, Inc.", Source: model.SourceSECFormD},
		{Name: "OpenAI", Source: model.SourceTechCrunch},
		{Name: "Open AI LLC", Source: model.SourceVentureBeat},
		{Name: "Stripe", Source: model.SourceCBInsights},
	}

	groups := New(Options{}).Group(companies)
	assert.Equal(t, [][]string{
		{"OpenAI, Inc.", "OpenAI"},
		{"Stripe, Inc.", "Stripe"},
		{"Open AI LLC"},
	}, names(groups))
}

func TestGroup_EmptyNamesNeverGroup(t *testing.T) {
	t.Parallel()

	companies := []model.Company{
		{Name: ""},
		{Name: "Inc."},
		{Name: ""},
	}

	groups := New(Options{}).Group(companies)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Len(t, g, 1)
	}
}

func TestGroup_ThresholdOption(t *testing.T) {
	t.Parallel()

	companies := []model.Company{
		{Name: "Brightpath"},
		{Name: "Brightpathways"},
	}

	assert.Len(t, New(Options{}).Group(companies), 2)
	assert.Len(t, New(Options{Threshold: 80}).Group(companies), 1)
}

func TestGroup_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, New(Options{}).Group(nil))
}

func TestGroupIndices(t *testing.T) {
	t.Parallel()

	got := groupIndices([]string{"acme", "zeta", "acme", "", "zeta"}, DefaultThreshold)
	assert.Equal(t, [][]int{{0, 2}, {1, 4}, {3}}, got)
}
