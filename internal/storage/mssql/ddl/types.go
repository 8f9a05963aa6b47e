// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps engine column types into SQL Server types. The mapping is
// intentionally conservative and biased toward safe, widely-supported choices.
package ddl

import "tablekit/internal/table"

// MapType maps an engine column type into a SQL Server column type.
//
//	Int    -> BIGINT
//	Float  -> FLOAT (8-byte IEEE 754, same representation as the engine)
//	Bool   -> BIT
//	Date   -> DATETIME2 (date cells may carry a time component)
//	String -> NVARCHAR(MAX)
//
// Unknown types fall back to NVARCHAR(MAX).
func MapType(t table.Type) string {
	switch t {
	case table.Int:
		return "BIGINT"
	case table.Float:
		return "FLOAT"
	case table.Bool:
		return "BIT"
	case table.Date:
		return "DATETIME2"
	default:
		// Default to a flexible Unicode string type.
		return "NVARCHAR(MAX)"
	}
}
