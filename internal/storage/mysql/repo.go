// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and go-sql-driver. Bulk loading uses batched multi-row INSERT
// statements inside a transaction; MySQL has no COPY protocol, but multi-row
// VALUES keeps round trips low.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN is a go-sql-driver DSN, e.g.:
	//   "user:pass@tcp(localhost:3306)/dbname?parseTime=true"
	DSN string

	// Table is the target table name for inserts.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}

// insertChunkRows caps the number of rows per multi-row INSERT so that the
// statement stays well under max_allowed_packet for typical row widths.
const insertChunkRows = 500

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool and returns a Repository plus a
// Close function for cleanup. The DSN is validated before dialing so obvious
// mistakes fail fast.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts the given rows into the configured table using batched
// multi-row INSERT statements inside a single transaction.
//
// It returns the number of rows successfully inserted or an error. len(row)
// must equal len(columns) for every row.
func (r *Repository) CopyFrom(
	ctx context.Context,
	columns []string,
	rows [][]any,
) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: CopyFrom: row %d length %d != columns length %d", i, len(row), len(columns))
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	rowTuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	prefix := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES ",
		r.cfg.Table,
		strings.Join(columns, ", "),
	)

	var inserted int64
	for start := 0; start < len(rows); start += insertChunkRows {
		end := start + insertChunkRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		tuples := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			tuples[i] = rowTuple
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, prefix+strings.Join(tuples, ", "), args...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: insert rows %d..%d: %w", start, end-1, err)
		}
		inserted += int64(len(chunk))
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}
