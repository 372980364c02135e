// Package sqlite stores stops in a SQLite file through the pure-Go modernc
// driver. It is the default sink and the one the test suites run against.
// Loads are chunked multi-row INSERTs in one transaction; the swap renames
// tables inside a transaction, which SQLite makes atomic.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"checkpost/internal/storage"
)

const (
	// busyTimeout makes readers wait out a swap instead of failing with
	// SQLITE_BUSY.
	busyTimeout = "_pragma=busy_timeout(5000)"

	// rowsPerInsert keeps statements over the stops columns far below the host
	// parameter limit.
	rowsPerInsert = 500

	pingTimeout = 5 * time.Second
)

// Config is the subset of storage.Config the backend reads.
type Config struct {
	// DSN is a path ("checkpost.db") or a file: URI
	// ("file:checkpost.db?cache=shared").
	DSN string

	// PoolSize caps open connections. In-memory databases are pinned to one
	// connection since each connection would otherwise get its own database.
	PoolSize int
}

// Repository is the SQLite storage.Conn.
type Repository struct {
	storage.SQLDB
	cfg Config
}

// NewRepository opens and pings the database. The returned func closes it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", withBusyTimeout(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	} else {
		storage.ApplyPool(db, cfg.PoolSize)
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping %s: %w", dsn, err)
	}
	return &Repository{SQLDB: storage.SQLDB{DB: db, Name: "sqlite"}, cfg: cfg}, func() { _ = db.Close() }, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func withBusyTimeout(dsn string) string {
	switch {
	case strings.Contains(dsn, "busy_timeout"):
		return dsn
	case strings.Contains(dsn, "?"):
		return dsn + "&" + busyTimeout
	default:
		return dsn + "?" + busyTimeout
	}
}

// Dialect implements storage.Conn.
func (r *Repository) Dialect() storage.Dialect { return Dialect{} }

// CopyFrom appends rows to table. Values must already be encoded with
// Dialect.Encode and aligned to columns.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	d := Dialect{}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	return r.InsertRows(ctx, d.QuoteTable(table), quoted, rows, rowsPerInsert)
}

// Swap renames shadow to target inside one transaction. An existing target
// is moved aside to <target>__prev and dropped once the rename succeeded.
func (r *Repository) Swap(ctx context.Context, shadow, target string) error {
	d := Dialect{}
	prev := target + "__prev"
	return r.InTx(ctx, func(tx *sql.Tx) error {
		exec := func(q string) error {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("sqlite: swap: %w", err)
			}
			return nil
		}
		if err := exec("DROP TABLE IF EXISTS " + d.QuoteTable(prev)); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", baseName(target),
		).Scan(&n); err != nil {
			return fmt.Errorf("sqlite: swap: lookup %s: %w", target, err)
		}
		if n > 0 {
			if err := exec("ALTER TABLE " + d.QuoteTable(target) + " RENAME TO " + d.Quote(baseName(prev))); err != nil {
				return err
			}
		}
		if err := exec("ALTER TABLE " + d.QuoteTable(shadow) + " RENAME TO " + d.Quote(baseName(target))); err != nil {
			return err
		}
		return exec("DROP TABLE IF EXISTS " + d.QuoteTable(prev))
	})
}

// baseName strips a schema qualifier; RENAME TO takes a bare name.
func baseName(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
