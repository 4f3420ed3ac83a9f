// Package store exports the final records of a run to SQLite or Postgres.
// Exports are write-only: runs never read earlier exports back.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/model"
)

// DefaultSQLitePath is used when the sqlite driver has no database_url.
const DefaultSQLitePath = "funding.db"

// Exporter writes a run's companies and summary to a database.
type Exporter interface {
	Migrate(ctx context.Context) error
	// Export writes companies keyed by (runID, position) and returns the
	// number of rows written.
	Export(ctx context.Context, runID string, companies []model.Company) (int, error)
	RecordRun(ctx context.Context, result *model.RunResult) error
	Close() error
}

// companyColumns is the column order of funded_companies rows.
var companyColumns = []string{
	"run_id", "position", "company_name", "company_website", "funding_amount",
	"amount_sold", "funding_round", "investors", "industry", "location",
	"founding_year", "source", "sources", "announcement_date", "description",
	"ceo_name", "executives", "phone", "linkedin_url", "sec_filing_url",
	"total_investors",
}

// companyRow flattens c into values matching companyColumns. Lists are
// stored as JSON arrays; sources as the comma-joined label.
func companyRow(runID string, pos int, c model.Company) ([]any, error) {
	investors, err := jsonList(c.Investors)
	if err != nil {
		return nil, eris.Wrapf(err, "store: encode investors for %s", c.Name)
	}
	executives, err := jsonList(c.Executives)
	if err != nil {
		return nil, eris.Wrapf(err, "store: encode executives for %s", c.Name)
	}
	return []any{
		runID, pos, c.Name, c.Website, nullInt64(c.FundingAmount),
		nullInt64(c.AmountSold), c.FundingRound, investors, c.Industry, c.Location,
		nullInt(c.FoundingYear), c.Source, c.SourceLabel(), c.AnnouncementDate, c.Description,
		c.CEOName, executives, c.Phone, c.LinkedInURL, c.SECFilingURL,
		c.TotalInvestors,
	}, nil
}

func jsonList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// Open connects the exporter selected by cfg.Driver and applies its schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Exporter, error) {
	var (
		ex  Exporter
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		path := cfg.DatabaseURL
		if path == "" {
			path = DefaultSQLitePath
		}
		ex, err = NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires database_url")
		}
		ex, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := ex.Migrate(ctx); err != nil {
		ex.Close() //nolint:errcheck
		return nil, err
	}
	return ex, nil
}
