package notion

import (
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties_SkipsEmpty(t *testing.T) {
	t.Parallel()

	props := Properties{}.
		Title("Name", "Acme").
		Text("Description", "  ").
		URL("Website", "").
		Number("Amount", nil).
		Select("Round", "").
		MultiSelect("Investors", []string{"", " "}).
		Date("Announced", "not a date")

	assert.Len(t, props, 1)
	assert.Contains(t, props, "Name")
}

func TestProperties_Values(t *testing.T) {
	t.Parallel()

	amount := int64(5_000_000)
	props := Properties{}.
		Title("Name", "Acme").
		Text("Description", "Payments API").
		URL("Website", "https://acme.com").
		Number("Amount", &amount).
		Select("Round", "Series A").
		MultiSelect("Investors", []string{"Sequoia", "Andreessen Horowitz, LLC"}).
		Date("Announced", "2026-03-15")

	title := props["Name"].(notionapi.TitleProperty)
	assert.Equal(t, "Acme", title.Title[0].Text.Content)

	assert.Equal(t, "https://acme.com", props["Website"].(notionapi.URLProperty).URL)
	assert.InDelta(t, 5e6, props["Amount"].(notionapi.NumberProperty).Number, 0.1)
	assert.Equal(t, "Series A", props["Round"].(notionapi.SelectProperty).Select.Name)

	ms := props["Investors"].(notionapi.MultiSelectProperty).MultiSelect
	require.Len(t, ms, 2)
	assert.Equal(t, "Andreessen Horowitz LLC", ms[1].Name)

	date := props["Announced"].(notionapi.DateProperty)
	require.NotNil(t, date.Date)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), time.Time(*date.Date.Start))
}

func TestProperties_TruncatesLongText(t *testing.T) {
	t.Parallel()

	props := Properties{}.Text("Description", strings.Repeat("é", maxTextLen+10))
	rt := props["Description"].(notionapi.RichTextProperty)
	assert.Len(t, []rune(rt.RichText[0].Text.Content), maxTextLen)
}

func TestDatabasePage(t *testing.T) {
	t.Parallel()

	req := DatabasePage("db-1", Properties{}.Title("Name", "Acme"))
	assert.Equal(t, notionapi.ParentTypeDatabaseID, req.Parent.Type)
	assert.Equal(t, notionapi.DatabaseID("db-1"), req.Parent.DatabaseID)
	assert.Len(t, req.Properties, 1)
}
