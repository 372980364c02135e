package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLDB implements the Exec and Query halves of Repository over
// database/sql. Backends built on database/sql embed it.
type SQLDB struct {
	DB *sql.DB
	// Name prefixes errors, e.g. "mysql".
	Name string
}

// Exec runs a statement that returns no rows. Blank statements are no-ops.
func (s SQLDB) Exec(ctx context.Context, stmt string, args ...any) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", s.Name, err)
	}
	return nil
}

// Query runs a read and materializes the result.
func (s SQLDB) Query(ctx context.Context, q string, args ...any) (*ResultSet, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.Name, err)
	}
	rs, err := ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", s.Name, err)
	}
	return rs, nil
}

// InTx runs fn in a transaction, committing on nil and rolling back
// otherwise.
func (s SQLDB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", s.Name, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.Name, err)
	}
	return nil
}

// InsertRows writes rows into table with multi-row INSERT statements of at
// most chunk rows, all in one transaction. table and columns must already be
// quoted; placeholders are "?". It returns the affected row count.
func (s SQLDB) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, chunk int) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: insert: no columns", s.Name)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if chunk <= 0 {
		chunk = len(rows)
	}
	tuple := "(?" + strings.Repeat(", ?", len(columns)-1) + ")"
	head := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES "

	var total int64
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		for len(rows) > 0 {
			part := rows[:min(chunk, len(rows))]
			rows = rows[len(part):]

			var sb strings.Builder
			sb.WriteString(head)
			args := make([]any, 0, len(part)*len(columns))
			for i, row := range part {
				if len(row) != len(columns) {
					return fmt.Errorf("%s: insert: row has %d values for %d columns", s.Name, len(row), len(columns))
				}
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(tuple)
				args = append(args, row...)
			}
			res, err := tx.ExecContext(ctx, sb.String(), args...)
			if err != nil {
				return fmt.Errorf("%s: insert: %w", s.Name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("%s: rows affected: %w", s.Name, err)
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ApplyPool applies a pool size to db. size <= 0 leaves driver defaults.
func ApplyPool(db *sql.DB, size int) {
	if size <= 0 {
		return
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
}
