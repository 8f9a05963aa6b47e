package transform

import (
	"fmt"

	"tablekit/internal/table"
)

// Normalize rewrites the values of a string column through a finite
// mapping: cells that appear as mapping keys are replaced by their mapped
// value, everything else (including nulls) passes through untouched. The
// classic use is collapsing boolean spellings like {"Y":"Yes","N":"No"} onto
// their canonical forms.
//
// Accepted mappings are idempotent by construction: a mapping whose value
// is itself a key mapping somewhere else ({"Y":"N","N":"No"}) is rejected
// with ErrMapping, so applying Normalize twice always equals applying it
// once. Identity entries ({"Yes":"Yes"}) are allowed.
type Normalize struct {
	Column  string
	Mapping map[string]string
}

// CheckMapping validates a mapping for idempotency. Exposed for recipe
// validation, which wants to reject a bad mapping at lint time rather than
// mid-run.
func CheckMapping(m map[string]string) error {
	for k, v := range m {
		if next, isKey := m[v]; isKey && next != v {
			return fmt.Errorf("%w: %q -> %q -> %q", ErrMapping, k, v, next)
		}
	}
	return nil
}

// Apply rewrites in place and returns how many cells changed.
func (n Normalize) Apply(t *table.Table) (int, error) {
	ci := t.ColumnIndex(n.Column)
	if ci < 0 {
		return 0, fmt.Errorf("normalize: column %q not found: %w", n.Column, ErrSchema)
	}
	if ct := t.Schema()[ci].Type; ct != table.String {
		return 0, fmt.Errorf("normalize: column %q has type %s, want string: %w", n.Column, ct, ErrSchema)
	}
	if err := CheckMapping(n.Mapping); err != nil {
		return 0, fmt.Errorf("normalize: column %q: %w", n.Column, err)
	}

	updated := 0
	for i, row := range t.Rows() {
		cell := row.V[ci]
		if cell == nil {
			continue
		}
		mapped, ok := n.Mapping[cell.(string)]
		if !ok || mapped == cell.(string) {
			continue
		}
		if err := t.Set(i, n.Column, mapped); err != nil {
			return updated, fmt.Errorf("normalize: %w", err)
		}
		updated++
	}
	return updated, nil
}
