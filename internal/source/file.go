package source

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/funding-cli/internal/fetcher"
	"github.com/sells-group/funding-cli/internal/model"
)

// FileSource reads previously collected records from a JSON, YAML, CSV or
// XLSX file, local or over HTTP.
type FileSource struct {
	location   string
	downloader fetcher.Downloader
}

// NewFileSource creates a file source. d is only needed for URLs.
func NewFileSource(location string, d fetcher.Downloader) *FileSource {
	return &FileSource{location: location, downloader: d}
}

// Name implements Source.
func (s *FileSource) Name() string { return "File " + filepath.Base(s.location) }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) ([]model.Company, error) {
	return LoadFile(ctx, s.downloader, s.location)
}

// LoadFile reads and parses a record file.
func LoadFile(ctx context.Context, d fetcher.Downloader, location string) ([]model.Company, error) {
	format, err := fetcher.FormatOf(location)
	if err != nil {
		return nil, err
	}
	data, err := fetcher.Load(ctx, d, location)
	if err != nil {
		return nil, err
	}
	return ParseRecords(data, format)
}

// ParseRecords decodes records in the given format. Structured formats hold
// a list of objects (or an object wrapping one under "companies"); tabular
// formats hold a header row of field names. Records without a company name
// are dropped.
func ParseRecords(data []byte, format fetcher.Format) ([]model.Company, error) {
	var items []map[string]any
	var err error

	switch format {
	case fetcher.FormatJSON:
		items, err = decodeItems(string(data))
	case fetcher.FormatYAML:
		items, err = decodeYAMLItems(data)
	case fetcher.FormatCSV:
		var rows [][]string
		if rows, err = fetcher.ReadCSV(data); err == nil {
			items = rowsToItems(rows)
		}
	case fetcher.FormatXLSX:
		var rows [][]string
		if rows, err = fetcher.ReadXLSX(data, fetcher.XLSXOptions{}); err == nil {
			items = rowsToItems(rows)
		}
	default:
		return nil, eris.Errorf("source: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	companies := make([]model.Company, 0, len(items))
	for _, item := range items {
		if c, ok := RecordFromFields(item); ok {
			companies = append(companies, c)
		}
	}
	return companies, nil
}

func decodeYAMLItems(data []byte) ([]map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "source: decode yaml")
	}
	if v == nil {
		return nil, nil
	}

	if obj, ok := v.(map[string]any); ok {
		v = []any{obj}
		for _, k := range listKeys {
			if list, ok := obj[k].([]any); ok {
				v = list
				break
			}
		}
	}

	list, ok := v.([]any)
	if !ok {
		return nil, eris.Errorf("source: yaml document is %T, not a list", v)
	}
	items := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// rowsToItems keys each data row by the lower-cased header. Empty cells are
// left out.
func rowsToItems(rows [][]string) []map[string]any {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	items := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		item := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			item[header[i]] = strings.TrimSpace(cell)
		}
		items = append(items, item)
	}
	return items
}

// RecordFromFields builds a company from loosely typed fields keyed by the
// record's JSON names. Amounts may be numbers or money strings; lists may be
// arrays or comma-separated strings.
func RecordFromFields(f map[string]any) (model.Company, bool) {
	name := strings.TrimSpace(textOf(f, "company_name", "name"))
	if name == "" {
		return model.Company{}, false
	}

	investors := listField(f["investors"])
	c := model.Company{
		Name:             name,
		Website:          textOf(f, "company_website", "website"),
		FundingAmount:    moneyOf(f["funding_amount"]),
		AmountSold:       moneyOf(f["amount_sold"]),
		FundingRound:     textOf(f, "funding_round"),
		Investors:        investors,
		Industry:         textOf(f, "industry"),
		Location:         textOf(f, "location"),
		Source:           textOf(f, "source"),
		AnnouncementDate: textOf(f, "announcement_date"),
		Description:      textOf(f, "description"),
		CEOName:          textOf(f, "ceo_name"),
		Executives:       listField(f["executives"]),
		Phone:            textOf(f, "phone"),
		LinkedInURL:      textOf(f, "linkedin_url"),
		SECFilingURL:     textOf(f, "sec_filing_url"),
		TotalInvestors:   len(investors),
	}
	if c.FundingRound == "" {
		c.FundingRound = model.RoundUnknown
	}
	if y := moneyOf(f["founding_year"]); y != nil {
		c.FoundingYear = model.Int(int(*y))
	}
	if n := moneyOf(f["total_investors"]); n != nil {
		c.TotalInvestors = int(*n)
	}
	if sources := listField(f["sources"]); len(sources) > 0 {
		c.Sources = sources
	}
	return c, true
}

// textOf returns the first non-empty value under keys, rendering numbers
// without a fraction.
func textOf(f map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case int:
			return strconv.Itoa(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func moneyOf(v any) *int64 {
	switch a := v.(type) {
	case int:
		return model.Int64(int64(a))
	case int64:
		return model.Int64(a)
	case float64:
		return model.Int64(int64(math.Round(a)))
	case string:
		return ParseAmount(a)
	default:
		return nil
	}
}
