package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a bulk merge into Table.
type UpsertConfig struct {
	Table        string   // optionally schema-qualified
	Columns      []string // column order of each row
	ConflictKeys []string // unique constraint the merge resolves on
	UpdateCols   []string // nil updates every non-key column

	// Scope, when set, makes the merge authoritative for the rows matching
	// Scope.Column = Scope.Value: rows in that slice which are absent from
	// the batch are deleted.
	Scope *Scope
}

// Scope selects the slice of Table a batch replaces.
type Scope struct {
	Column string
	Value  any
}

func (cfg UpsertConfig) validate() error {
	switch {
	case cfg.Table == "":
		return eris.New("db: upsert: no table specified")
	case len(cfg.Columns) == 0:
		return eris.New("db: upsert: no columns specified")
	case len(cfg.ConflictKeys) == 0:
		return eris.New("db: upsert: no conflict keys specified")
	case cfg.Scope != nil && cfg.Scope.Column == "":
		return eris.New("db: upsert: scope has no column")
	}
	return nil
}

func (cfg UpsertConfig) updateColumns() []string {
	if cfg.UpdateCols != nil {
		return cfg.UpdateCols
	}
	keys := make(map[string]struct{}, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		keys[k] = struct{}{}
	}
	var cols []string
	for _, c := range cfg.Columns {
		if _, ok := keys[c]; !ok {
			cols = append(cols, c)
		}
	}
	return cols
}

func (cfg UpsertConfig) stagingTable() pgx.Identifier {
	return pgx.Identifier{"_tmp_upsert_" + strings.ReplaceAll(cfg.Table, ".", "_")}
}

func (cfg UpsertConfig) createStagingSQL() string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		cfg.stagingTable().Sanitize(), identifier(cfg.Table).Sanitize())
}

func (cfg UpsertConfig) mergeSQL() string {
	cols := quoteAndJoin(cfg.Columns)
	action := "DO NOTHING"
	if update := cfg.updateColumns(); len(update) > 0 {
		set := make([]string, len(update))
		for i, c := range update {
			q := pgx.Identifier{c}.Sanitize()
			set[i] = q + " = EXCLUDED." + q
		}
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		identifier(cfg.Table).Sanitize(), cols, cols, cfg.stagingTable().Sanitize(),
		quoteAndJoin(cfg.ConflictKeys), action)
}

// pruneSQL deletes scoped rows whose keys are not in the staging table.
func (cfg UpsertConfig) pruneSQL() string {
	target := identifier(cfg.Table).Sanitize()
	staging := cfg.stagingTable().Sanitize()
	match := make([]string, len(cfg.ConflictKeys))
	for i, k := range cfg.ConflictKeys {
		q := pgx.Identifier{k}.Sanitize()
		match[i] = fmt.Sprintf("s.%s = t.%s", q, q)
	}
	return fmt.Sprintf("DELETE FROM %s t WHERE t.%s = $1 AND NOT EXISTS (SELECT 1 FROM %s s WHERE %s)",
		target, pgx.Identifier{cfg.Scope.Column}.Sanitize(), staging, strings.Join(match, " AND "))
}

// BulkUpsert stages rows with COPY in a temp table shaped like cfg.Table and
// merges them with INSERT ... ON CONFLICT, all in one transaction. It returns
// the number of rows inserted or updated.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if len(rows) == 0 && cfg.Scope == nil {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, cfg.createStagingSQL()); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, cfg.stagingTable(), cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
		}
	}

	tag, err := tx.Exec(ctx, cfg.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}

	if cfg.Scope != nil {
		if _, err := tx.Exec(ctx, cfg.pruneSQL(), cfg.Scope.Value); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: prune %s", cfg.Table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// identifier splits a schema-qualified name like "public.funded_companies".
func identifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
