// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "postgres" (tablekit/internal/storage/postgres)
//   - "mssql"    (tablekit/internal/storage/mssql)
//   - "sqlite"   (tablekit/internal/storage/sqlite)
//   - "mysql"    (tablekit/internal/storage/mysql; no DDL bootstrapper)
//
// Typical usage (in cmd/tablekit/main.go or a similar wiring layer):
//
//	package main
//
//	import (
//	    "context"
//
//	    _ "tablekit/internal/storage/all" // enable all built-in backends
//
//	    "tablekit/internal/storage"
//	    // ... other imports ...
//	)
//
//	func run(ctx context.Context) error {
//	    // Construct a storage.Config from the recipe's sink and open a
//	    // Repository.
//	    cfg := storage.Config{
//	        Kind:    sink.Kind,
//	        DSN:     sink.DSN,
//	        Table:   sink.Table,
//	        Columns: t.Schema().Names(),
//	    }
//	    repo, err := storage.New(ctx, cfg)
//	    if err != nil {
//	        return err
//	    }
//	    defer repo.Close()
//
//	    // Optionally create the destination table if requested by the sink.
//	    if sink.AutoCreate {
//	        if err := storage.EnsureTableFromSchema(ctx, cfg, t.Schema(), repo); err != nil {
//	            return err
//	        }
//	    }
//
//	    // From this point on, the caller can remain fully backend-agnostic:
//	    // batched writes go through storage.WriteTable regardless of whether
//	    // the underlying backend is Postgres, MSSQL, SQLite, or MySQL.
//	    _, err = storage.WriteTable(ctx, repo, t, 0, recipeName)
//	    return err
//	}
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application (pipeline runner, transforms, CLI) to
// depend only on the storage abstraction rather than individual backends.
//
// Note: if you want a binary that supports only a subset of backends, you can
// define alternative wiring packages that import only the required backends
// instead of this package.
package all

import (
	_ "tablekit/internal/storage/mssql"
	_ "tablekit/internal/storage/mysql"
	_ "tablekit/internal/storage/postgres"
	_ "tablekit/internal/storage/sqlite"
)
