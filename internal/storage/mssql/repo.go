// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API for loads and database/sql for reads.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"checkpost/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN      string
	PoolSize int
}

// Repository is the SQL Server storage.Conn.
type Repository struct {
	storage.SQLDB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	storage.ApplyPool(db, cfg.PoolSize)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{SQLDB: storage.SQLDB{DB: db, Name: "mssql"}, cfg: cfg}, close, nil
}

// Dialect implements storage.Conn.
func (r *Repository) Dialect() storage.Dialect { return Dialect{} }

// CopyFrom bulk-inserts rows into table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var copied int64
	err := r.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(Dialect{}.QuoteTable(table), mssql.BulkOptions{}, columns...))
		if err != nil {
			return fmt.Errorf("mssql: prepare bulk: %w", err)
		}
		for i := range rows {
			if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("mssql: bulk row %d: %w", i, err)
			}
		}
		res, err := stmt.ExecContext(ctx)
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("mssql: bulk finalize: %w", err)
		}
		copied, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mssql: rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// Swap renames shadow to target with sp_rename inside one transaction.
func (r *Repository) Swap(ctx context.Context, shadow, target string) error {
	return r.InTx(ctx, func(tx *sql.Tx) error {
		for _, s := range swapScript(shadow, target) {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return fmt.Errorf("mssql: swap: %w", err)
			}
		}
		return nil
	})
}

// swapScript returns the statements Swap runs. sp_rename takes the new name
// unqualified.
func swapScript(shadow, target string) []string {
	d := Dialect{}
	prev := target + "__prev"
	lit := func(s string) string { return "N'" + strings.ReplaceAll(s, "'", "''") + "'" }
	return []string{
		"IF OBJECT_ID(" + lit(d.QuoteTable(prev)) + ", N'U') IS NOT NULL DROP TABLE " + d.QuoteTable(prev),
		"IF OBJECT_ID(" + lit(d.QuoteTable(target)) + ", N'U') IS NOT NULL EXEC sp_rename " +
			lit(d.QuoteTable(target)) + ", " + lit(baseName(prev)),
		"EXEC sp_rename " + lit(d.QuoteTable(shadow)) + ", " + lit(baseName(target)),
		"IF OBJECT_ID(" + lit(d.QuoteTable(prev)) + ", N'U') IS NOT NULL DROP TABLE " + d.QuoteTable(prev),
	}
}

func baseName(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
