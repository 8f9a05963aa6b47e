// Package table implements the in-memory table model the engine operates on.
//
// A Table is a named, ordered collection of rows under a fixed column schema.
// Cells are dynamically typed (`any`) but must conform to the declared column
// type; nil is the null value for every type. Rows carry a monotonically
// increasing int64 ID assigned at append time. The ID is never reused and
// serves three purposes:
//
//   - a stable original-insertion order for stable sorts and tie-breaks,
//   - the row identity reported by destructive operations (prune diffs),
//   - a join handle for callers that post-process reports.
//
// Tables are not safe for concurrent mutation. The engine's batch semantics
// are single-threaded: read-only phases may fan out across goroutines, but
// every mutation happens in a serialized phase owned by one goroutine.
package table

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Type enumerates the column types the engine understands.
type Type int

const (
	String Type = iota
	Int
	Float
	Date
	Bool
)

// String returns the lowercase name used in contracts and recipes.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Date:
		return "date"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType maps a contract/recipe type name to a Type. Names are matched
// case-insensitively; "integer", "double" and "datetime" aliases are accepted
// because they show up in hand-written contracts.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text", "":
		return String, nil
	case "int", "integer":
		return Int, nil
	case "float", "double", "number":
		return Float, nil
	case "date", "datetime":
		return Date, nil
	case "bool", "boolean":
		return Bool, nil
	default:
		return String, fmt.Errorf("table: unknown type %q", s)
	}
}

// Column is one named, typed column in a schema.
type Column struct {
	Name string
	Type Type
}

// Schema is an ordered list of columns. Order is significant: row values are
// positional and align index-for-index with the schema.
type Schema []Column

// Index returns the position of the named column, or -1 if absent.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	return slices.Clone(s)
}

// Row is one record: a stable ID plus values positionally aligned with the
// table schema. V must be treated as read-only by everything except the
// owning Table's mutation methods.
type Row struct {
	ID int64
	V  []any
}

// Table is a named, schema-conforming collection of rows.
type Table struct {
	Name string

	schema Schema
	rows   []Row
	nextID int64
}

// New creates an empty table with the given schema. Column names must be
// unique; duplicates are a programming error and panic.
func New(name string, cols ...Column) *Table {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			panic(fmt.Sprintf("table: duplicate column %q in schema for %q", c.Name, name))
		}
		seen[c.Name] = struct{}{}
	}
	return &Table{
		Name:   name,
		schema: Schema(cols).Clone(),
		nextID: 1,
	}
}

// Schema returns the table's schema. Callers must not mutate it.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int { return t.schema.Index(name) }

// Row returns the row at position i. The returned value shares backing
// storage with the table; callers must not mutate V.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns the underlying row slice for read-only iteration.
func (t *Table) Rows() []Row { return t.rows }

// checkValue verifies a cell against the declared column type. nil is null
// and always conforms.
func checkValue(ct Type, v any) error {
	if v == nil {
		return nil
	}
	ok := false
	switch ct {
	case String:
		_, ok = v.(string)
	case Int:
		_, ok = v.(int64)
	case Float:
		_, ok = v.(float64)
	case Date:
		_, ok = v.(time.Time)
	case Bool:
		_, ok = v.(bool)
	}
	if !ok {
		return fmt.Errorf("table: value %T does not conform to column type %s", v, ct)
	}
	return nil
}

// Append adds a row and returns its assigned ID. The value count must match
// the schema and every cell must conform to its column type.
func (t *Table) Append(vals ...any) (int64, error) {
	if len(vals) != len(t.schema) {
		return 0, fmt.Errorf("table: %s: append arity %d, schema has %d columns", t.Name, len(vals), len(t.schema))
	}
	for i, v := range vals {
		if err := checkValue(t.schema[i].Type, v); err != nil {
			return 0, fmt.Errorf("%w (column %q)", err, t.schema[i].Name)
		}
	}
	id := t.nextID
	t.nextID++
	t.rows = append(t.rows, Row{ID: id, V: slices.Clone(vals)})
	return id, nil
}

// Value returns the cell at (row position, column name).
func (t *Table) Value(rowIdx int, col string) (any, error) {
	ci := t.schema.Index(col)
	if ci < 0 {
		return nil, fmt.Errorf("table: %s: no column %q", t.Name, col)
	}
	if rowIdx < 0 || rowIdx >= len(t.rows) {
		return nil, fmt.Errorf("table: %s: row %d out of range [0,%d)", t.Name, rowIdx, len(t.rows))
	}
	return t.rows[rowIdx].V[ci], nil
}

// Set updates the cell at (row position, column name) after type-checking.
func (t *Table) Set(rowIdx int, col string, v any) error {
	ci := t.schema.Index(col)
	if ci < 0 {
		return fmt.Errorf("table: %s: no column %q", t.Name, col)
	}
	if rowIdx < 0 || rowIdx >= len(t.rows) {
		return fmt.Errorf("table: %s: row %d out of range [0,%d)", t.Name, rowIdx, len(t.rows))
	}
	if err := checkValue(t.schema[ci].Type, v); err != nil {
		return fmt.Errorf("%w (column %q)", err, col)
	}
	t.rows[rowIdx].V[ci] = v
	return nil
}

// AddColumn extends the schema with a new column and backfills every existing
// row with null. Fails if the name is already taken.
func (t *Table) AddColumn(c Column) error {
	if t.schema.Index(c.Name) >= 0 {
		return fmt.Errorf("table: %s: column %q already exists", t.Name, c.Name)
	}
	t.schema = append(t.schema, c)
	for i := range t.rows {
		t.rows[i].V = append(t.rows[i].V, nil)
	}
	return nil
}

// DropColumns removes the named columns from the schema and every row.
// Destructive: there is no undo. Unknown names fail before anything is
// touched.
func (t *Table) DropColumns(names ...string) error {
	drop := make(map[int]struct{}, len(names))
	for _, n := range names {
		ci := t.schema.Index(n)
		if ci < 0 {
			return fmt.Errorf("table: %s: no column %q", t.Name, n)
		}
		drop[ci] = struct{}{}
	}
	if len(drop) == 0 {
		return nil
	}
	keep := make([]int, 0, len(t.schema)-len(drop))
	for i := range t.schema {
		if _, gone := drop[i]; !gone {
			keep = append(keep, i)
		}
	}
	ns := make(Schema, len(keep))
	for i, ci := range keep {
		ns[i] = t.schema[ci]
	}
	t.schema = ns
	for r := range t.rows {
		nv := make([]any, len(keep))
		for i, ci := range keep {
			nv[i] = t.rows[r].V[ci]
		}
		t.rows[r].V = nv
	}
	return nil
}

// DeleteRows removes every row whose ID appears in ids and returns the count
// actually removed. Relative order of survivors is preserved. Destructive:
// there is no undo.
func (t *Table) DeleteRows(ids ...int64) int {
	if len(ids) == 0 {
		return 0
	}
	gone := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := t.rows[:0]
	removed := 0
	for _, r := range t.rows {
		if _, del := gone[r.ID]; del {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	// Zero the tail so deleted rows don't pin cell values.
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = Row{}
	}
	t.rows = kept
	return removed
}

// Clone returns a deep copy: schema, rows and the ID sequence are all
// independent of the receiver.
func (t *Table) Clone() *Table {
	nt := &Table{
		Name:   t.Name,
		schema: t.schema.Clone(),
		rows:   make([]Row, len(t.rows)),
		nextID: t.nextID,
	}
	for i, r := range t.rows {
		nt.rows[i] = Row{ID: r.ID, V: slices.Clone(r.V)}
	}
	return nt
}

// SortStableBy reorders rows with a stable sort under the given less
// function. Row IDs travel with their rows.
func (t *Table) SortStableBy(less func(a, b Row) bool) {
	slices.SortStableFunc(t.rows, func(a, b Row) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
}

// Where returns a new table containing the rows the predicate accepts. Rows
// keep their IDs so reports stay joinable across derived tables; the ID
// sequence carries over so later appends stay unique.
func (t *Table) Where(pred func(Row) bool) *Table {
	nt := &Table{Name: t.Name, schema: t.schema.Clone(), nextID: t.nextID}
	for _, r := range t.rows {
		if pred(r) {
			nt.rows = append(nt.rows, Row{ID: r.ID, V: slices.Clone(r.V)})
		}
	}
	return nt
}

// Select returns a new table projected to the named columns, in the order
// given. Rows keep their IDs.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	ns := make(Schema, len(cols))
	for i, n := range cols {
		ci := t.schema.Index(n)
		if ci < 0 {
			return nil, fmt.Errorf("table: %s: no column %q", t.Name, n)
		}
		idx[i] = ci
		ns[i] = t.schema[ci]
	}
	nt := &Table{Name: t.Name, schema: ns, nextID: t.nextID, rows: make([]Row, len(t.rows))}
	for r, row := range t.rows {
		nv := make([]any, len(idx))
		for i, ci := range idx {
			nv[i] = row.V[ci]
		}
		nt.rows[r] = Row{ID: row.ID, V: nv}
	}
	return nt, nil
}
