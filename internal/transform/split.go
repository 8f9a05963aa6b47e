package transform

import (
	"fmt"
	"strings"

	"tablekit/internal/table"
)

// SplitFirst cuts a string column at the first occurrence of Delimiter into
// exactly two trimmed parts, written left-to-right into the two Into
// columns ("123 Main St, Springfield" with delimiter "," becomes "123 Main
// St" and "Springfield"). The Into columns are appended to the schema as
// String columns; the source column is left alone, so drop it explicitly if
// it is no longer wanted.
//
// A cell that does not contain the delimiter is a FormatError issue: its
// output cells stay null and the row survives. Null source cells are
// skipped silently.
type SplitFirst struct {
	Source    string
	Delimiter string
	Into      [2]string
}

// Apply splits in place and returns how many rows were written, plus the
// per-row issues.
func (s SplitFirst) Apply(t *table.Table) (int, *Report, error) {
	si, err := splitSetup(t, "split", s.Source, s.Delimiter, s.Into[:])
	if err != nil {
		return 0, nil, err
	}

	rep := &Report{Rows: t.Len()}
	updated := 0
	for i, row := range t.Rows() {
		cell := row.V[si]
		if cell == nil {
			continue
		}
		raw := cell.(string)
		cut := strings.Index(raw, s.Delimiter)
		if cut < 0 {
			rep.Issues = append(rep.Issues, RowIssue{
				RowID:  row.ID,
				Column: s.Source,
				Value:  raw,
				Err:    fmt.Errorf("split: no %q in value: %w", s.Delimiter, ErrFormat),
			})
			continue
		}
		left := strings.TrimSpace(raw[:cut])
		right := strings.TrimSpace(raw[cut+len(s.Delimiter):])
		if err := t.Set(i, s.Into[0], left); err != nil {
			return updated, rep, fmt.Errorf("split: %w", err)
		}
		if err := t.Set(i, s.Into[1], right); err != nil {
			return updated, rep, fmt.Errorf("split: %w", err)
		}
		updated++
	}
	return updated, rep, nil
}

// SplitParts splits a string column on every occurrence of Delimiter and
// requires exactly len(Into) parts. Parts map in reverse: the rightmost
// token lands in Into[0], the next in Into[1], and so on, the order a
// trailing-qualifier address reads in ("123 Main St, Houston, TX" with
// Into ["state","city","street"] yields state=TX, city=Houston,
// street=123 Main St).
//
// A cell with the wrong part count is a FormatError issue: outputs stay
// null, the row survives. Null source cells are skipped silently.
type SplitParts struct {
	Source    string
	Delimiter string
	Into      []string
}

// Apply splits in place and returns how many rows were written, plus the
// per-row issues.
func (s SplitParts) Apply(t *table.Table) (int, *Report, error) {
	if len(s.Into) < 2 {
		return 0, nil, fmt.Errorf("split: need at least two output columns, got %d: %w", len(s.Into), ErrSchema)
	}
	si, err := splitSetup(t, "split", s.Source, s.Delimiter, s.Into)
	if err != nil {
		return 0, nil, err
	}

	rep := &Report{Rows: t.Len()}
	updated := 0
	for i, row := range t.Rows() {
		cell := row.V[si]
		if cell == nil {
			continue
		}
		raw := cell.(string)
		parts := strings.Split(raw, s.Delimiter)
		if len(parts) != len(s.Into) {
			rep.Issues = append(rep.Issues, RowIssue{
				RowID:  row.ID,
				Column: s.Source,
				Value:  raw,
				Err:    fmt.Errorf("split: %d parts, want %d: %w", len(parts), len(s.Into), ErrFormat),
			})
			continue
		}
		for n, col := range s.Into {
			part := strings.TrimSpace(parts[len(parts)-1-n])
			if err := t.Set(i, col, part); err != nil {
				return updated, rep, fmt.Errorf("split: %w", err)
			}
		}
		updated++
	}
	return updated, rep, nil
}

// splitSetup validates a split's columns and extends the schema with the
// output columns. All checks run before the first AddColumn so a rejected
// config never leaves the schema half-extended. Shared by both variants.
func splitSetup(t *table.Table, op, source, delim string, into []string) (int, error) {
	if delim == "" {
		return 0, fmt.Errorf("%s: delimiter required", op)
	}
	si := t.ColumnIndex(source)
	if si < 0 {
		return 0, fmt.Errorf("%s: source column %q not found: %w", op, source, ErrSchema)
	}
	if ct := t.Schema()[si].Type; ct != table.String {
		return 0, fmt.Errorf("%s: source column %q has type %s, want string: %w", op, source, ct, ErrSchema)
	}
	seen := make(map[string]struct{}, len(into))
	for _, col := range into {
		if col == "" {
			return 0, fmt.Errorf("%s: empty output column name: %w", op, ErrSchema)
		}
		if t.ColumnIndex(col) >= 0 {
			return 0, fmt.Errorf("%s: output column %q already exists: %w", op, col, ErrSchema)
		}
		if _, dup := seen[col]; dup {
			return 0, fmt.Errorf("%s: output column %q listed twice: %w", op, col, ErrSchema)
		}
		seen[col] = struct{}{}
	}
	for _, col := range into {
		if err := t.AddColumn(table.Column{Name: col, Type: table.String}); err != nil {
			return 0, fmt.Errorf("%s: %v: %w", op, err, ErrSchema)
		}
	}
	return si, nil
}
