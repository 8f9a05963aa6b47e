package ddl

import (
	"fmt"

	gddl "tablekit/internal/ddl"
	"tablekit/internal/table"
)

// FromSchema maps a table schema onto a Postgres table definition. Every
// column is nullable: null is a first-class cell value in the engine, so no
// materialized column can promise NOT NULL.
func FromSchema(fqn string, s table.Schema) (gddl.TableDef, error) {
	if fqn == "" {
		return gddl.TableDef{}, fmt.Errorf("postgres ddl: table name is required")
	}
	if len(s) == 0 {
		return gddl.TableDef{}, fmt.Errorf("postgres ddl: schema must not be empty")
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
