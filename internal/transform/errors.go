package transform

import (
	"errors"
	"fmt"

	"tablekit/internal/table"
)

// Error kinds raised by the transforms. Callers distinguish them with
// errors.Is; every returned error wraps exactly one of these with column and
// operation context.
var (
	// ErrSchema marks a referenced column that is missing or has the wrong
	// type for the operation. Always fatal for the whole operation.
	ErrSchema = errors.New("schema mismatch")

	// ErrParse marks a cell that fails a required numeric or date cast.
	// Per-row: carried as a Report issue, never fails the operation.
	ErrParse = errors.New("unparsable value")

	// ErrRangeOverflow marks an accumulator leaving its numeric domain.
	// Always fatal: a partial sum is worse than no sum.
	ErrRangeOverflow = errors.New("accumulator overflow")

	// ErrFormat marks a cell whose shape does not match the expected split
	// form (missing delimiter, wrong part count). Per-row issue.
	ErrFormat = errors.New("malformed value")

	// ErrEmptyInput is returned by RequireRows for callers that must treat
	// a zero-row table as a failure. The transforms themselves accept empty
	// input and produce well-typed empty results.
	ErrEmptyInput = errors.New("empty input")

	// ErrMapping marks a normalization mapping that is not idempotent.
	ErrMapping = errors.New("mapping not idempotent")
)

// RequireRows fails with ErrEmptyInput when t has no rows. The transforms do
// not call this themselves; recipe steps that make no sense on an empty
// table (export, materialize) use it to fail early with a clear kind.
func RequireRows(t *table.Table) error {
	if t.Len() == 0 {
		return fmt.Errorf("table %q: %w", t.Name, ErrEmptyInput)
	}
	return nil
}
