package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// maxTextLen is Notion's limit on a single rich text run.
const maxTextLen = 2000

// Properties accumulates page properties, skipping empty values.
type Properties notionapi.Properties

// Title sets the page title property.
func (p Properties) Title(name, value string) Properties {
	p[name] = notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: richText(value),
	}
	return p
}

// Text sets a rich text property when value is non-empty.
func (p Properties) Text(name, value string) Properties {
	if strings.TrimSpace(value) == "" {
		return p
	}
	p[name] = notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: richText(value),
	}
	return p
}

// URL sets a URL property when value is non-empty.
func (p Properties) URL(name, value string) Properties {
	if strings.TrimSpace(value) == "" {
		return p
	}
	p[name] = notionapi.URLProperty{
		Type: notionapi.PropertyTypeURL,
		URL:  value,
	}
	return p
}

// Number sets a number property when value is non-nil.
func (p Properties) Number(name string, value *int64) Properties {
	if value == nil {
		return p
	}
	p[name] = notionapi.NumberProperty{
		Type:   notionapi.PropertyTypeNumber,
		Number: float64(*value),
	}
	return p
}

// Select sets a select property when value is non-empty.
func (p Properties) Select(name, value string) Properties {
	if value == "" {
		return p
	}
	p[name] = notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: value},
	}
	return p
}

// MultiSelect sets a multi-select property from the non-empty values.
func (p Properties) MultiSelect(name string, values []string) Properties {
	opts := make([]notionapi.Option, 0, len(values))
	for _, v := range values {
		// Notion rejects commas inside option names.
		v = strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if v != "" {
			opts = append(opts, notionapi.Option{Name: v})
		}
	}
	if len(opts) == 0 {
		return p
	}
	p[name] = notionapi.MultiSelectProperty{
		Type:        notionapi.PropertyTypeMultiSelect,
		MultiSelect: opts,
	}
	return p
}

// Date sets a date property from a YYYY-MM-DD string; unparseable values are
// skipped.
func (p Properties) Date(name, value string) Properties {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return p
	}
	d := notionapi.Date(t)
	p[name] = notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &d},
	}
	return p
}

// DatabasePage builds a create request for a page in dbID.
func DatabasePage(dbID string, props Properties) *notionapi.PageCreateRequest {
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: notionapi.Properties(props),
	}
}

func richText(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > maxTextLen {
		s = string(r[:maxTextLen])
	}
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
