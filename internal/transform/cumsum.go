// Package transform implements the engine's core table operations:
// partitioned cumulative aggregation, duplicate ranking and pruning,
// join-based null filling, column splitting, and value normalization.
//
// Every operation is a small config struct with an Apply method, the same
// shape recipe steps are declared in. Apply either returns a new table
// (CumulativeSum, Ratio) or mutates the input in place and reports what it
// touched (FillNulls, Split*, Normalize, Dedupe). Determinism is a hard
// requirement throughout: group iteration follows first-seen partition
// order, ties break by row ID, and the parallel paths are pure
// reshufflings of the same per-partition work, so a run with Workers=8
// produces byte-identical results to Workers=1.
//
// Failure handling is two-tier. Structural problems (missing columns, wrong
// types, accumulator overflow) fail the whole operation with a wrapped
// ErrSchema/ErrRangeOverflow. Per-row problems (unparsable cells, malformed
// split shapes) never abort: the row is skipped for that operation and
// recorded as a Report issue, so callers see exact counts instead of silent
// data loss.
package transform

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tablekit/internal/table"
)

// DefaultCumulativeColumn is the output column name used when As is empty.
const DefaultCumulativeColumn = "cumulative_value"

// CumulativeSum appends a running per-partition total to a table.
//
// Rows are grouped by PartitionBy (order-insensitive; nulls group with
// nulls), ordered within each partition by OrderBy ascending, and folded
// into a running sum of Value. Rows sharing one OrderBy value form a single
// frame: all of them observe the total *after* the whole frame is included,
// so a partition's day with three records shows the same post-day total on
// all three.
//
// Null Value cells contribute nothing and are not an error; an explicit
// zero contributes zero; a non-numeric string in a string-typed Value
// column contributes nothing and is reported as a ParseError issue. These
// three cases stay distinct in the output report.
//
// The accumulator follows the Value column's declared type: Int sums in
// int64 with checked overflow, Float and string-parsed values sum in
// float64 with infinity detection. Overflow aborts the operation.
type CumulativeSum struct {
	PartitionBy []string
	OrderBy     string
	Value       string
	As          string // output column; DefaultCumulativeColumn when empty
	Workers     int    // per-partition parallelism; <=1 means sequential
}

// Apply computes the cumulative column and returns a new table; the input
// is never modified. A zero-row input yields a zero-row output that already
// carries the (empty) cumulative column.
func (c CumulativeSum) Apply(t *table.Table) (*table.Table, *Report, error) {
	oi := t.ColumnIndex(c.OrderBy)
	if oi < 0 {
		return nil, nil, fmt.Errorf("cumulative sum: order column %q not found: %w", c.OrderBy, ErrSchema)
	}
	vi := t.ColumnIndex(c.Value)
	if vi < 0 {
		return nil, nil, fmt.Errorf("cumulative sum: value column %q not found: %w", c.Value, ErrSchema)
	}
	vt := t.Schema()[vi].Type
	switch vt {
	case table.Int, table.Float, table.String:
	default:
		return nil, nil, fmt.Errorf("cumulative sum: value column %q has type %s, not summable: %w", c.Value, vt, ErrSchema)
	}

	as := c.As
	if as == "" {
		as = DefaultCumulativeColumn
	}
	outType := table.Float
	if vt == table.Int {
		outType = table.Int
	}

	out := t.Clone()
	if err := out.AddColumn(table.Column{Name: as, Type: outType}); err != nil {
		return nil, nil, fmt.Errorf("cumulative sum: %v: %w", err, ErrSchema)
	}

	rep := &Report{Rows: t.Len()}
	if t.Len() == 0 {
		return out, rep, nil
	}

	keyer, err := NewKeyer(t, "cumulative sum", c.PartitionBy)
	if err != nil {
		return nil, nil, err
	}
	parts := partitionRows(t, keyer)
	rep.Partitions = len(parts)

	// Per-row result slots and per-partition issue lists. Partitions are
	// disjoint row sets, so workers never write the same slot.
	vals := make([]any, t.Len())
	issues := make([][]RowIssue, len(parts))

	fold := func(pi int) error {
		p := parts[pi]
		sorted := sortByOrder(t, p.rows, oi)
		if vt == table.Int {
			return foldInt(t, sorted, oi, vi, vals)
		}
		iss, err := foldFloat(t, sorted, oi, vi, c.Value, vt == table.String, vals)
		issues[pi] = iss
		return err
	}

	workers := c.Workers
	if workers > len(parts) {
		workers = len(parts)
	}
	if workers <= 1 {
		for pi := range parts {
			if err := fold(pi); err != nil {
				return nil, nil, err
			}
		}
	} else {
		var g errgroup.Group
		for _, shard := range shardPartitions(parts, workers) {
			shard := shard
			g.Go(func() error {
				for _, pi := range shard {
					if err := fold(pi); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	// Serialized assembly: write slots into the output and flatten issues
	// in partition order.
	for i, v := range vals {
		if err := out.Set(i, as, v); err != nil {
			return nil, nil, fmt.Errorf("cumulative sum: %w", err)
		}
	}
	for _, iss := range issues {
		rep.Issues = append(rep.Issues, iss...)
	}
	return out, rep, nil
}

// sortByOrder returns the positions ordered by the order column ascending,
// nulls first, ties by row ID. The input slice is not modified.
func sortByOrder(t *table.Table, positions []int, oi int) []int {
	sorted := slices.Clone(positions)
	slices.SortFunc(sorted, func(x, y int) int {
		ax, ay := t.Row(x).V[oi], t.Row(y).V[oi]
		if Less(ax, ay) {
			return -1
		}
		if Less(ay, ax) {
			return 1
		}
		switch dx, dy := t.Row(x).ID, t.Row(y).ID; {
		case dx < dy:
			return -1
		case dx > dy:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// addInt64 adds with overflow detection.
func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func foldInt(t *table.Table, sorted []int, oi, vi int, vals []any) error {
	var sum int64
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && orderEqual(t.Row(sorted[j]).V[oi], t.Row(sorted[i]).V[oi]) {
			j++
		}
		for k := i; k < j; k++ {
			cell := t.Row(sorted[k]).V[vi]
			if cell == nil {
				continue
			}
			next, ok := addInt64(sum, cell.(int64))
			if !ok {
				return fmt.Errorf("cumulative sum: partition of row %d: %w", t.Row(sorted[0]).ID, ErrRangeOverflow)
			}
			sum = next
		}
		for k := i; k < j; k++ {
			vals[sorted[k]] = sum
		}
		i = j
	}
	return nil
}

func foldFloat(t *table.Table, sorted []int, oi, vi int, valueCol string, parse bool, vals []any) ([]RowIssue, error) {
	var sum float64
	var issues []RowIssue
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && orderEqual(t.Row(sorted[j]).V[oi], t.Row(sorted[i]).V[oi]) {
			j++
		}
		for k := i; k < j; k++ {
			row := t.Row(sorted[k])
			cell := row.V[vi]
			if cell == nil {
				continue
			}
			var v float64
			if parse {
				s := strings.TrimSpace(cell.(string))
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					issues = append(issues, RowIssue{
						RowID:  row.ID,
						Column: valueCol,
						Value:  cell.(string),
						Err:    fmt.Errorf("cumulative sum: %w: %q", ErrParse, s),
					})
					continue
				}
				v = f
			} else {
				v = cell.(float64)
			}
			sum += v
			if math.IsInf(sum, 0) {
				return nil, fmt.Errorf("cumulative sum: partition of row %d: %w", t.Row(sorted[0]).ID, ErrRangeOverflow)
			}
		}
		for k := i; k < j; k++ {
			vals[sorted[k]] = sum
		}
		i = j
	}
	return issues, nil
}
