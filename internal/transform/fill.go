package transform

import (
	"fmt"

	"tablekit/internal/table"
)

// FillNulls fills null Target cells from a sibling row that shares the same
// JoinKey value and has the Target populated: the self-join idiom for
// datasets where repeated entities (a parcel sold twice) carry the address
// only on some rows.
//
// Donor choice is deterministic: among eligible donors for a key, the one
// with the lowest row ID (earliest inserted) wins. The donor index is built
// once from the table state at call time, so a freshly filled cell never
// becomes a donor within the same call; values copy directly from
// original donors, they do not propagate through chains.
//
// Rows with a null JoinKey are never touched: an unknown key is not
// evidence of a match. Rows with no eligible donor stay null; that is an
// expected outcome, not an error.
type FillNulls struct {
	JoinKey string
	Target  string
}

// Apply fills in place and returns how many cells were updated.
func (f FillNulls) Apply(t *table.Table) (int, error) {
	if f.JoinKey == f.Target {
		return 0, fmt.Errorf("fill: join key and target are both %q: %w", f.Target, ErrSchema)
	}
	ki := t.ColumnIndex(f.JoinKey)
	if ki < 0 {
		return 0, fmt.Errorf("fill: join column %q not found: %w", f.JoinKey, ErrSchema)
	}
	tgt := t.ColumnIndex(f.Target)
	if tgt < 0 {
		return 0, fmt.Errorf("fill: target column %q not found: %w", f.Target, ErrSchema)
	}

	keyer, err := NewKeyer(t, "fill", []string{f.JoinKey})
	if err != nil {
		return 0, err
	}

	// Donor index from pre-call state: key -> value of the lowest-ID row
	// with a populated target.
	type donor struct {
		id    int64
		value any
	}
	donors := make(map[string]donor)
	for _, row := range t.Rows() {
		if row.V[ki] == nil || row.V[tgt] == nil {
			continue
		}
		key := keyer.Key(row)
		if prev, ok := donors[key]; !ok || row.ID < prev.id {
			donors[key] = donor{id: row.ID, value: row.V[tgt]}
		}
	}

	updated := 0
	for i, row := range t.Rows() {
		if row.V[tgt] != nil || row.V[ki] == nil {
			continue
		}
		d, ok := donors[keyer.Key(row)]
		if !ok {
			continue
		}
		if err := t.Set(i, f.Target, d.value); err != nil {
			return updated, fmt.Errorf("fill: %w", err)
		}
		updated++
	}
	return updated, nil
}
