// Package storage contains storage-agnostic contracts for materializing
// tables into SQL databases.
//
// The package defines a narrow Repository interface plus a registration-based
// factory, so that callers (the pipeline runner, the CLI) can open a backend
// by kind string without importing concrete backend packages. Backends
// register themselves at init time; importing internal/storage/all as a blank
// import enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config carries everything a backend needs to open a Repository.
type Config struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql", "mysql".
	Kind string
	// DSN is the backend-specific connection string.
	DSN string
	// Table is the target table name, possibly schema-qualified
	// (e.g. "public.parcels").
	Table string
	// Columns is the ordered list of destination columns.
	Columns []string
}

// Repository is the minimal write-side contract every backend implements.
// Backends use their most efficient bulk primitive for CopyFrom (Postgres
// COPY, MSSQL bulk copy, multi-row INSERT elsewhere).
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned to the columns order) into the
	// configured table and returns the number of rows inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs an arbitrary SQL statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// Close releases the underlying connection resources.
	Close()
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. It is
// typically called from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind using the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted, as a snapshot copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
