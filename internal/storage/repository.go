// Package storage contains the storage-agnostic contracts used by the load
// and report stages, a registry of backend factories, and shared helpers
// (batched loading, result normalization).
//
// Backends register themselves from init; import checkpost/internal/storage/all
// to enable every built-in backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnsupportedKind is returned by New for an unregistered kind.
var ErrUnsupportedKind = errors.New("unsupported storage.kind")

// Conn is what a backend implements. Registration pairs it with the cleanup
// returned by the backend constructor to form a Repository.
type Conn interface {
	// CopyFrom bulk-inserts rows (aligned to columns) into table and returns
	// the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query runs a read and materializes the result.
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)

	// Swap atomically replaces target with shadow. The previous target, if
	// any, is dropped. On error neither table is changed.
	Swap(ctx context.Context, shadow, target string) error

	// Dialect describes the backend's SQL flavour.
	Dialect() Dialect
}

// Repository is the relational sink. All methods are safe for concurrent use.
// Close releases the connection pool and may be called more than once.
type Repository interface {
	Conn
	Close()
}

// Config carries the backend-independent connection settings.
type Config struct {
	Kind string
	DSN  string
	// PoolSize caps open connections; <= 0 leaves the driver default.
	PoolSize int
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Opener is the constructor every backend package exports as NewRepository
// (adapted to storage.Config). It returns the connection and its cleanup.
type Opener[C Conn] func(ctx context.Context, cfg Config) (C, func(), error)

// RegisterOpener registers kind with a factory that calls open and binds the
// cleanup to Close.
func RegisterOpener[C Conn](kind string, open Opener[C]) {
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		c, cleanup, err := open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &bound{Conn: c, cleanup: cleanup}, nil
	})
}

type bound struct {
	Conn
	once    sync.Once
	cleanup func()
}

func (b *bound) Close() {
	b.once.Do(func() {
		if b.cleanup != nil {
			b.cleanup()
		}
	})
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w=%s", ErrUnsupportedKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
