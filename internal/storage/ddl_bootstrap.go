package storage

import (
	"context"
	"fmt"
	"sync"

	"tablekit/internal/table"
)

// DDLBootstrapper is a backend-specific function that:
//   - maps a table schema onto a dialect-specific table definition, and
//   - applies the appropriate DDL via repo.Exec (typically CREATE TABLE).
//
// Backends (postgres, mssql, sqlite, etc.) register their implementation for
// a given storage kind (e.g., "postgres") at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, fqn string, s table.Schema) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTableFromSchema locates the DDLBootstrapper for cfg.Kind and invokes
// it with cfg.Table and the given schema. Callers do not need to know which
// backend they are using; they simply pass the config and the already-open
// Repository.
//
// If no DDL bootstrapper has been registered for the storage kind, an error
// is returned.
func EnsureTableFromSchema(ctx context.Context, cfg Config, s table.Schema, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, cfg.Table, s)
}
