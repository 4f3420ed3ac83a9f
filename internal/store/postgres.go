package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/db"
	"github.com/sells-group/funding-cli/internal/model"
)

// PostgresExporter implements Exporter using pgxpool.
type PostgresExporter struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const insertRunSQL = `INSERT INTO funding_runs (id, status, started_at, finished_at, result)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, finished_at = EXCLUDED.finished_at, result = EXCLUDED.result`

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_funding_run": insertRunSQL,
}

// NewPostgres creates a PostgresExporter with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresExporter, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresExporter{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS funding_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	result      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS funded_companies (
	run_id            TEXT NOT NULL,
	position          INTEGER NOT NULL,
	company_name      TEXT NOT NULL,
	company_website   TEXT NOT NULL DEFAULT '',
	funding_amount    BIGINT,
	amount_sold       BIGINT,
	funding_round     TEXT NOT NULL DEFAULT '',
	investors         JSONB NOT NULL DEFAULT '[]',
	industry          TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	founding_year     INTEGER,
	source            TEXT NOT NULL DEFAULT '',
	sources           TEXT NOT NULL DEFAULT '',
	announcement_date TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	ceo_name          TEXT NOT NULL DEFAULT '',
	executives        JSONB NOT NULL DEFAULT '[]',
	phone             TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	sec_filing_url    TEXT NOT NULL DEFAULT '',
	total_investors   INTEGER NOT NULL DEFAULT 0,
	exported_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_funded_companies_name ON funded_companies(company_name);
`

func (s *PostgresExporter) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresExporter) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Export merges the run's companies into funded_companies in one bulk
// upsert. Rows left over from an earlier, longer export of the same run are
// removed.
func (s *PostgresExporter) Export(ctx context.Context, runID string, companies []model.Company) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(companies))
	for i, c := range companies {
		row, err := companyRow(runID, i, c)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "funded_companies",
		Columns:      companyColumns,
		ConflictKeys: []string{"run_id", "position"},
		Scope:        &db.Scope{Column: "run_id", Value: runID},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: export run %s", runID)
	}
	return int(n), nil
}

// RecordRun upserts the run summary without its company list.
func (s *PostgresExporter) RecordRun(ctx context.Context, result *model.RunResult) error {
	summary, err := runJSON(result)
	if err != nil {
		return err
	}
	var finished any
	if !result.FinishedAt.IsZero() {
		finished = result.FinishedAt
	}
	_, err = s.pool.Exec(ctx, insertRunSQL, result.RunID, string(result.Status), result.StartedAt, finished, summary)
	return eris.Wrapf(err, "postgres: record run %s", result.RunID)
}
