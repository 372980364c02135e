// Package postgres implements a Postgres repository using pgx v5. Loads go
// through COPY; reads use the pool's simple query path.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"checkpost/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
	// PoolSize caps pool connections; <= 0 keeps the pgxpool default.
	PoolSize int
}

// Repository is the Postgres storage.Conn.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: parse dsn: %w", err)
	}
	if cfg.PoolSize > 0 {
		pcfg.MaxConns = int32(cfg.PoolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgxpool: ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// Dialect implements storage.Conn.
func (r *Repository) Dialect() storage.Dialect { return Dialect{} }

// CopyFrom streams rows into table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, describe(err))
	}
	return n, nil
}

// Exec runs stmt on the pool.
func (r *Repository) Exec(ctx context.Context, sql string, args ...any) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// Query materializes the result, converting pgtype values to the shapes the
// database/sql backends return.
func (r *Repository) Query(ctx context.Context, sql string, args ...any) (*storage.ResultSet, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", describe(err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rs := &storage.ResultSet{Columns: make([]string, len(fields))}
	for i, f := range fields {
		rs.Columns[i] = f.Name
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		for i := range vals {
			vals[i] = normalize(vals[i])
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query: %w", describe(err))
	}
	return rs, nil
}

// Swap renames shadow to target in one transaction. Postgres DDL is
// transactional, so readers see either the old or the new table.
func (r *Repository) Swap(ctx context.Context, shadow, target string) error {
	d := Dialect{}
	prev := target + "__prev"
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+d.QuoteTable(prev)); err != nil {
			return fmt.Errorf("postgres: swap: %w", describe(err))
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", d.QuoteTable(target)).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: swap: lookup %s: %w", target, describe(err))
		}
		stmts := []string{}
		if exists {
			stmts = append(stmts, "ALTER TABLE "+d.QuoteTable(target)+" RENAME TO "+d.Quote(baseName(prev)))
		}
		stmts = append(stmts,
			"ALTER TABLE "+d.QuoteTable(shadow)+" RENAME TO "+d.Quote(baseName(target)),
			"DROP TABLE IF EXISTS "+d.QuoteTable(prev),
		)
		for _, s := range stmts {
			if _, err := tx.Exec(ctx, s); err != nil {
				return fmt.Errorf("postgres: swap: %w", describe(err))
			}
		}
		return nil
	})
}

// describe surfaces the server's detail text, which pgx keeps out of Error().
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s)", err, pgErr.Detail)
	}
	return err
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func baseName(fqn string) string {
	id := splitFQN(fqn)
	if len(id) == 0 {
		return fqn
	}
	return id[len(id)-1]
}
