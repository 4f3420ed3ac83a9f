package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/model"
)

// newMockPostgresExporter creates a PostgresExporter backed by pgxmock for unit testing.
func newMockPostgresExporter(t *testing.T) (*PostgresExporter, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresExporter{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	ex, mock := newMockPostgresExporter(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS funding_runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, ex.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Export(t *testing.T) {
	ex, mock := newMockPostgresExporter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_funded_companies"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_funded_companies"}, companyColumns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "funded_companies" .* ON CONFLICT \("run_id", "position"\) DO UPDATE`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`DELETE FROM "funded_companies" t WHERE t."run_id" = \$1`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	n, err := ex.Export(context.Background(), "run-1", sampleCompanies())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExportBeginError(t *testing.T) {
	ex, mock := newMockPostgresExporter(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := ex.Export(context.Background(), "run-1", sampleCompanies())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExportEmpty(t *testing.T) {
	ex, mock := newMockPostgresExporter(t)

	n, err := ex.Export(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecordRun(t *testing.T) {
	ex, mock := newMockPostgresExporter(t)
	start := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO funding_runs`).
		WithArgs("run-1", "complete", start, start.Add(time.Minute), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := ex.RecordRun(context.Background(), &model.RunResult{
		RunID:      "run-1",
		Status:     model.RunStatusComplete,
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Close(t *testing.T) {
	closed := false
	ex := &PostgresExporter{closeFn: func() { closed = true }}
	require.NoError(t, ex.Close())
	assert.True(t, closed)
}
