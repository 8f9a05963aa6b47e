// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "tablekit/internal/table"

// MapType maps an engine column type onto a Postgres SQL type.
//
//	Int    -> BIGINT
//	Float  -> DOUBLE PRECISION
//	Bool   -> BOOLEAN
//	Date   -> TIMESTAMPTZ (date cells may carry a time component)
//	String -> TEXT
func MapType(t table.Type) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "DOUBLE PRECISION"
	case table.Bool:
		return "BOOLEAN"
	case table.Date:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
