// Package mysql implements a MySQL-backed storage.Repository on
// go-sql-driver/mysql. Loads use multi-row INSERT statements inside a
// transaction; the shadow swap uses RENAME TABLE, which MySQL applies
// atomically across all listed pairs.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"checkpost/internal/storage"
)

// maxRowsPerInsert keeps multi-row INSERTs well under the driver's
// placeholder limit for the stops column count.
const maxRowsPerInsert = 500

// Config holds MySQL repository configuration.
type Config struct {
	DSN      string
	PoolSize int
}

// Repository is the MySQL storage.Conn.
type Repository struct {
	storage.SQLDB
	cfg    Config
	schema string
}

// NewRepository parses the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// DATE and TIME come back as text so results match the other backends.
	mc.ParseTime = false
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	storage.ApplyPool(db, cfg.PoolSize)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{SQLDB: storage.SQLDB{DB: db, Name: "mysql"}, cfg: cfg, schema: mc.DBName}, close, nil
}

// Dialect implements storage.Conn.
func (r *Repository) Dialect() storage.Dialect { return Dialect{} }

// CopyFrom inserts rows with multi-row INSERT statements in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	d := Dialect{}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	return r.InsertRows(ctx, d.QuoteTable(table), quoted, rows, maxRowsPerInsert)
}

// Swap replaces target with shadow using a single RENAME TABLE statement.
// MySQL DDL is not transactional, but one RENAME TABLE is atomic.
func (r *Repository) Swap(ctx context.Context, shadow, target string) error {
	d := Dialect{}
	prev := target + "__prev"
	if err := r.Exec(ctx, "DROP TABLE IF EXISTS "+d.QuoteTable(prev)); err != nil {
		return fmt.Errorf("mysql: swap: %w", err)
	}
	exists, err := r.tableExists(ctx, target)
	if err != nil {
		return fmt.Errorf("mysql: swap: lookup %s: %w", target, err)
	}
	if err := r.Exec(ctx, renameStatement(shadow, target, exists)); err != nil {
		return fmt.Errorf("mysql: swap: %w", err)
	}
	if err := r.Exec(ctx, "DROP TABLE IF EXISTS "+d.QuoteTable(prev)); err != nil {
		return fmt.Errorf("mysql: swap: %w", err)
	}
	return nil
}

func renameStatement(shadow, target string, targetExists bool) string {
	d := Dialect{}
	if !targetExists {
		return "RENAME TABLE " + d.QuoteTable(shadow) + " TO " + d.QuoteTable(target)
	}
	return "RENAME TABLE " + d.QuoteTable(target) + " TO " + d.QuoteTable(target+"__prev") +
		", " + d.QuoteTable(shadow) + " TO " + d.QuoteTable(target)
}

func (r *Repository) tableExists(ctx context.Context, fqn string) (bool, error) {
	schema, name := r.schema, fqn
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		schema, name = fqn[:i], fqn[i+1:]
	}
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?",
		schema, name,
	).Scan(&n)
	return n > 0, err
}
