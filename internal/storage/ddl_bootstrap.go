package storage

import (
	"context"
	"fmt"

	"checkpost/internal/ddl"
)

// CreateTable renders t with the connection's dialect and executes it.
func CreateTable(ctx context.Context, repo Conn, t ddl.TableDef) error {
	stmt, err := repo.Dialect().CreateTableSQL(t)
	if err != nil {
		return fmt.Errorf("storage: render ddl: %w", err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("storage: create %s: %w", t.FQN, err)
	}
	return nil
}

// DropTable drops table if it exists.
func DropTable(ctx context.Context, repo Conn, table string) error {
	if err := repo.Exec(ctx, "DROP TABLE IF EXISTS "+repo.Dialect().QuoteTable(table)); err != nil {
		return fmt.Errorf("storage: drop %s: %w", table, err)
	}
	return nil
}
