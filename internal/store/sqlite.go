package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/funding-cli/internal/model"
)

// SQLiteExporter implements Exporter using modernc.org/sqlite.
type SQLiteExporter struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteExporter{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS funding_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	result      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS funded_companies (
	run_id            TEXT NOT NULL,
	position          INTEGER NOT NULL,
	company_name      TEXT NOT NULL,
	company_website   TEXT NOT NULL DEFAULT '',
	funding_amount    INTEGER,
	amount_sold       INTEGER,
	funding_round     TEXT NOT NULL DEFAULT '',
	investors         TEXT NOT NULL DEFAULT '[]',
	industry          TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	founding_year     INTEGER,
	source            TEXT NOT NULL DEFAULT '',
	sources           TEXT NOT NULL DEFAULT '',
	announcement_date TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	ceo_name          TEXT NOT NULL DEFAULT '',
	executives        TEXT NOT NULL DEFAULT '[]',
	phone             TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	sec_filing_url    TEXT NOT NULL DEFAULT '',
	total_investors   INTEGER NOT NULL DEFAULT 0,
	exported_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_funded_companies_name ON funded_companies(company_name);
`

func (s *SQLiteExporter) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteExporter) Close() error {
	return s.db.Close()
}

var sqliteInsertCompany = fmt.Sprintf(
	"INSERT OR REPLACE INTO funded_companies (%s) VALUES (%s)",
	strings.Join(companyColumns, ", "),
	strings.TrimSuffix(strings.Repeat("?, ", len(companyColumns)), ", "),
)

const sqlitePruneCompanies = "DELETE FROM funded_companies WHERE run_id = ? AND position >= ?"

// Export writes every company in one transaction, replacing any earlier
// export of the same run.
func (s *SQLiteExporter) Export(ctx context.Context, runID string, companies []model.Company) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin export")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsertCompany)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare export")
	}
	defer stmt.Close() //nolint:errcheck

	for i, c := range companies {
		row, err := companyRow(runID, i, c)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s", c.Name)
		}
	}
	if _, err := tx.ExecContext(ctx, sqlitePruneCompanies, runID, len(companies)); err != nil {
		return 0, eris.Wrapf(err, "sqlite: prune run %s", runID)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit export")
	}
	return len(companies), nil
}

// RecordRun stores the run summary without its company list.
func (s *SQLiteExporter) RecordRun(ctx context.Context, result *model.RunResult) error {
	summary, err := runJSON(result)
	if err != nil {
		return err
	}
	var finished any
	if !result.FinishedAt.IsZero() {
		finished = result.FinishedAt.UTC().Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO funding_runs (id, status, started_at, finished_at, result) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, string(result.Status), result.StartedAt.UTC().Format(time.RFC3339), finished, summary,
	)
	return eris.Wrapf(err, "sqlite: record run %s", result.RunID)
}

func runJSON(result *model.RunResult) (string, error) {
	trimmed := *result
	trimmed.Companies = nil
	b, err := json.Marshal(trimmed)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal run result")
	}
	return string(b), nil
}
