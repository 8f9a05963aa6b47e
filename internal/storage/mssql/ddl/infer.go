// Package ddl provides helpers to infer an MSSQL table definition from a
// table schema. It is backend-specific because it maps column types using
// MSSQL MapType.
package ddl

import (
	"fmt"

	gddl "tablekit/internal/ddl"
	"tablekit/internal/table"
)

// FromSchema derives an MSSQL-oriented TableDef from a table schema. Every
// column is nullable: null is a first-class cell value in the engine, so no
// materialized column can promise NOT NULL.
//
// PrimaryKey and Default are not inferred here; callers may enrich the
// returned TableDef if desired.
func FromSchema(fqn string, s table.Schema) (gddl.TableDef, error) {
	if fqn == "" {
		return gddl.TableDef{}, fmt.Errorf("mssql ddl: table name is required")
	}
	if len(s) == 0 {
		return gddl.TableDef{}, fmt.Errorf("mssql ddl: schema must not be empty")
	}

	defs := make([]gddl.ColumnDef, 0, len(s))
	for _, c := range s {
		defs = append(defs, gddl.ColumnDef{
			Name:     c.Name,
			SQLType:  MapType(c.Type),
			Nullable: true,
		})
	}
	return gddl.TableDef{FQN: fqn, Columns: defs}, nil
}
