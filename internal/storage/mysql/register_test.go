package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkpost/internal/storage"
)

func TestRegisteredKind(t *testing.T) {
	orig := connect
	t.Cleanup(func() { connect = orig })

	var got Config
	closed := 0
	connect = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, func() { closed++ }, nil
	}

	dsn := "checkpost:secret@tcp(localhost:3306)/police"
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: dsn, PoolSize: 6})
	require.NoError(t, err)
	assert.Equal(t, dsn, got.DSN)
	assert.Equal(t, 6, got.PoolSize)
	assert.Equal(t, "mysql", repo.Dialect().Name())

	repo.Close()
	repo.Close()
	assert.Equal(t, 1, closed)
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"})
	assert.ErrorContains(t, err, "mysql dsn")
}
