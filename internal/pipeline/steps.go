package pipeline

import (
	"fmt"
	"time"

	"tablekit/internal/config"
	"tablekit/internal/exporter"
	"tablekit/internal/schema"
	"tablekit/internal/table"
	"tablekit/internal/transform"
)

// stepOutcome carries a step's op-defined affected count and its per-row
// soft issues back to the run loop.
type stepOutcome struct {
	affected int
	issues   []transform.RowIssue
}

// destructiveSteps must be confirmed in the recipe or forced from the CLI
// before they run.
var destructiveSteps = map[string]bool{
	"dedupe": true,
	"drop":   true,
}

// applyStep dispatches one recipe step onto the transforms and table
// operations. Steps that rewrite in place return the same table; steps that
// derive return a new one. The run loop only ever keeps the returned
// table.
func applyStep(t *table.Table, s config.Step, rt config.RuntimeConfig, force bool, baseDir string) (*table.Table, stepOutcome, error) {
	var out stepOutcome
	if destructiveSteps[s.Op] && !s.Confirm && !force {
		return nil, out, fmt.Errorf("destructive step refused: set confirm in the recipe or run with --force")
	}

	o := s.Options
	switch s.Op {
	case "cumsum":
		nt, rep, err := transform.CumulativeSum{
			PartitionBy: o.StringSlice("partition_by"),
			OrderBy:     o.String("order_by", ""),
			Value:       o.String("value", ""),
			As:          o.String("as", ""),
			Workers:     rt.Workers,
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = nt.Len()
		out.issues = rep.Issues
		return nt, out, nil

	case "rank":
		entries, rep, err := transform.Rank{
			IdentityBy: o.StringSlice("identity_by"),
			Tiebreak:   o.String("tiebreak", ""),
			Workers:    rt.Workers,
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		nt, err := withRankColumn(t, entries, o.String("as", "rank"))
		if err != nil {
			return nil, out, err
		}
		if path := o.String("report", ""); path != "" {
			if err := exporter.WriteRanks(resolvePath(baseDir, path), entries, exporter.WriteOptions{}); err != nil {
				return nil, out, err
			}
		}
		out.affected = len(entries)
		out.issues = rep.Issues
		return nt, out, nil

	case "dedupe":
		res, err := transform.Dedupe{
			IdentityBy: o.StringSlice("identity_by"),
			Tiebreak:   o.String("tiebreak", ""),
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		if path := o.String("diff", ""); path != "" {
			if err := exporter.WritePruneDiff(resolvePath(baseDir, path), res, exporter.WriteOptions{}); err != nil {
				return nil, out, err
			}
		}
		out.affected = res.Count()
		return t, out, nil

	case "fill":
		n, err := transform.FillNulls{
			JoinKey: o.String("join_key", ""),
			Target:  o.String("target", ""),
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = n
		return t, out, nil

	case "split_first":
		into := o.StringSlice("into")
		if len(into) != 2 {
			return nil, out, fmt.Errorf("split_first: need exactly two output columns, got %d: %w", len(into), transform.ErrSchema)
		}
		n, rep, err := transform.SplitFirst{
			Source:    o.String("source", ""),
			Delimiter: o.String("delimiter", ""),
			Into:      [2]string{into[0], into[1]},
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = n
		out.issues = rep.Issues
		return t, out, nil

	case "split_parts":
		n, rep, err := transform.SplitParts{
			Source:    o.String("source", ""),
			Delimiter: o.String("delimiter", ""),
			Into:      o.StringSlice("into"),
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = n
		out.issues = rep.Issues
		return t, out, nil

	case "normalize":
		n, err := transform.Normalize{
			Column:  o.String("column", ""),
			Mapping: o.StringMap("mapping"),
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = n
		return t, out, nil

	case "ratio":
		nt, err := transform.Ratio{
			Numerator:   o.String("numerator", ""),
			Denominator: o.String("denominator", ""),
			As:          o.String("as", ""),
			Scale:       o.Float64("scale", 0),
		}.Apply(t)
		if err != nil {
			return nil, out, err
		}
		out.affected = nt.Len()
		return nt, out, nil

	case "select":
		nt, err := t.Select(o.StringSlice("columns")...)
		if err != nil {
			return nil, out, err
		}
		out.affected = len(nt.Schema())
		return nt, out, nil

	case "where":
		pred, err := whereMatcher(t, o)
		if err != nil {
			return nil, out, err
		}
		nt := t.Where(pred)
		out.affected = t.Len() - nt.Len() // rows filtered out
		return nt, out, nil

	case "drop":
		cols := o.StringSlice("columns")
		if err := t.DropColumns(cols...); err != nil {
			return nil, out, err
		}
		out.affected = len(cols)
		return t, out, nil

	default:
		return nil, out, fmt.Errorf("unsupported step op %q", s.Op)
	}
}

// withRankColumn returns a copy of t with an int rank column appended, so
// downstream steps can filter on it (where rank equals 1) and sinks carry
// it out.
func withRankColumn(t *table.Table, entries []transform.RankEntry, name string) (*table.Table, error) {
	nt := t.Clone()
	if err := nt.AddColumn(table.Column{Name: name, Type: table.Int}); err != nil {
		return nil, err
	}
	byID := make(map[int64]int, len(entries))
	for _, e := range entries {
		byID[e.RowID] = e.Rank
	}
	for i := 0; i < nt.Len(); i++ {
		rank, ok := byID[nt.Row(i).ID]
		if !ok {
			continue
		}
		if err := nt.Set(i, name, int64(rank)); err != nil {
			return nil, err
		}
	}
	return nt, nil
}

// whereMatcher builds the row predicate for a where step: not_null on a
// column, or equality against a literal. Numeric literals compare across
// int and float cells since JSON only has one number type; date cells
// compare against their contract-default spelling.
func whereMatcher(t *table.Table, o config.Options) (func(table.Row) bool, error) {
	col := o.String("column", "")
	ci := t.ColumnIndex(col)
	if ci < 0 {
		return nil, fmt.Errorf("where: column %q not found: %w", col, transform.ErrSchema)
	}
	if o.Bool("not_null", false) {
		return func(r table.Row) bool { return r.V[ci] != nil }, nil
	}
	want := o.Any("equals")
	if want == nil {
		return nil, fmt.Errorf("where: an equals value or not_null: true is required")
	}
	return func(r table.Row) bool { return cellEquals(r.V[ci], want) }, nil
}

func cellEquals(cell, want any) bool {
	if cell == nil {
		return false
	}
	switch w := want.(type) {
	case string:
		switch c := cell.(type) {
		case string:
			return c == w
		case time.Time:
			return c.Format(schema.DefaultDateLayout) == w
		}
	case bool:
		c, ok := cell.(bool)
		return ok && c == w
	case float64:
		switch c := cell.(type) {
		case int64:
			return float64(c) == w
		case float64:
			return c == w
		}
	case int: // hand-built Options maps
		switch c := cell.(type) {
		case int64:
			return c == int64(w)
		case float64:
			return c == float64(w)
		}
	}
	return false
}
