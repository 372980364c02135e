package sqlite

import (
	"context"

	"checkpost/internal/storage"
)

// connect is replaced in tests that exercise registration without a server.
var connect = NewRepository

func init() {
	storage.RegisterOpener("sqlite", func(ctx context.Context, cfg storage.Config) (*Repository, func(), error) {
		return connect(ctx, Config{DSN: cfg.DSN, PoolSize: cfg.PoolSize})
	})
}
