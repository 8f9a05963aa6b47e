// Package ddl contains SQLite-specific helpers for generating DDL.
//
// It maps engine column types into SQLite column types. The mapping is
// intentionally simple and biased toward common, portable choices.
package ddl

import "tablekit/internal/table"

// MapType maps an engine column type into a SQLite column type.
//
// SQLite supports dynamic typing, so this mapping prefers canonical affinities:
//   - Int    -> INTEGER
//   - Bool   -> INTEGER (0/1)
//   - Float  -> REAL
//   - Date   -> TEXT (ISO-8601 strings)
//   - others -> TEXT
func MapType(t table.Type) string {
	switch t {
	case table.Int:
		return "INTEGER"
	case table.Bool:
		return "INTEGER" // 0/1
	case table.Float:
		return "REAL"
	case table.Date:
		return "TEXT" // store ISO-8601 strings
	default:
		return "TEXT"
	}
}
