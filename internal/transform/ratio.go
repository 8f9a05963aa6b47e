package transform

import (
	"fmt"

	"tablekit/internal/table"
)

// Ratio appends a derived percentage column: Scale * Numerator /
// Denominator per row. Rows where either operand is null, or the
// denominator is zero, get a null result instead of an error, the guard a
// death-rate or percent-vaccinated report needs on sparse series.
type Ratio struct {
	Numerator   string
	Denominator string
	As          string
	Scale       float64 // 0 means 100 (percentage)
}

// Apply returns a new table with the ratio column; the input is never
// modified.
func (r Ratio) Apply(t *table.Table) (*table.Table, error) {
	ni, err := numericColumn(t, "ratio", r.Numerator)
	if err != nil {
		return nil, err
	}
	di, err := numericColumn(t, "ratio", r.Denominator)
	if err != nil {
		return nil, err
	}
	if r.As == "" {
		return nil, fmt.Errorf("ratio: output column name required: %w", ErrSchema)
	}
	scale := r.Scale
	if scale == 0 {
		scale = 100
	}

	out := t.Clone()
	if err := out.AddColumn(table.Column{Name: r.As, Type: table.Float}); err != nil {
		return nil, fmt.Errorf("ratio: %v: %w", err, ErrSchema)
	}
	for i, row := range t.Rows() {
		num, nok := asFloat(row.V[ni])
		den, dok := asFloat(row.V[di])
		if !nok || !dok || den == 0 {
			continue // stays null
		}
		if err := out.Set(i, r.As, scale*num/den); err != nil {
			return nil, fmt.Errorf("ratio: %w", err)
		}
	}
	return out, nil
}

func numericColumn(t *table.Table, op, name string) (int, error) {
	ci := t.ColumnIndex(name)
	if ci < 0 {
		return 0, fmt.Errorf("%s: column %q not found: %w", op, name, ErrSchema)
	}
	switch ct := t.Schema()[ci].Type; ct {
	case table.Int, table.Float:
		return ci, nil
	default:
		return 0, fmt.Errorf("%s: column %q has type %s, want numeric: %w", op, name, ct, ErrSchema)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
