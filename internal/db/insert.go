package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
)

// insertBatchSize bounds the rows per INSERT statement. SQLite caps bound
// parameters at 32766, Postgres at 65535.
const insertBatchSize = 200

// InsertRows bulk-inserts rows into table inside a single transaction using
// batched multi-row INSERT statements. It is used to seed development and
// test databases; the query engine never writes.
func InsertRows(ctx context.Context, db *sqlx.DB, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, eris.Errorf("db: insert into %s: no columns specified", table)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Quote(c)
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	prefix := "INSERT INTO " + Quote(table) + " (" + strings.Join(quoted, ", ") + ") VALUES "

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "db: begin insert into %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		batch := rows[start:end]

		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(columns))
		for i, row := range batch {
			if len(row) != len(columns) {
				return 0, eris.Errorf("db: insert into %s: row %d has %d values, want %d", table, start+i, len(row), len(columns))
			}
			values[i] = placeholder
			args = append(args, row...)
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(prefix+strings.Join(values, ", ")), args...)
		if err != nil {
			return 0, eris.Wrapf(err, "db: insert into %s", table)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "db: commit insert into %s", table)
	}
	return total, nil
}
