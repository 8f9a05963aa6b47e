package transform

import (
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"tablekit/internal/table"
)

// RankEntry is one row's position in the duplicate scan: its partition key,
// the tiebreak value it was ordered by, and its 1-based rank within the
// partition. Rank 1 is the partition's keeper; everything above 1 is a
// duplicate.
type RankEntry struct {
	RowID    int64
	Key      string
	Tiebreak any
	Rank     int
}

// Rank assigns per-partition ranks without touching the table.
//
// Rows are partitioned by the IdentityBy key tuple (nulls group together,
// exactly as the Keyer encodes them) and ordered by Tiebreak ascending with
// nulls first; rows that still tie order by row ID. Ranks are therefore
// contiguous 1..n with no gaps or repeats (row_number semantics, not
// rank-with-ties), which is what makes "delete rank > 1" a safe pruning
// rule.
//
// An empty Tiebreak ranks purely by insertion order.
type Rank struct {
	IdentityBy []string
	Tiebreak   string
	Workers    int // per-partition parallelism; <=1 means sequential
}

// Apply returns entries for every row, ordered by partition (first seen
// first) and rank within the partition.
func (r Rank) Apply(t *table.Table) ([]RankEntry, *Report, error) {
	if len(r.IdentityBy) == 0 {
		return nil, nil, fmt.Errorf("rank: identity columns required: %w", ErrSchema)
	}
	keyer, err := NewKeyer(t, "rank", r.IdentityBy)
	if err != nil {
		return nil, nil, err
	}
	ti := -1
	if r.Tiebreak != "" {
		if ti = t.ColumnIndex(r.Tiebreak); ti < 0 {
			return nil, nil, fmt.Errorf("rank: tiebreak column %q not found: %w", r.Tiebreak, ErrSchema)
		}
	}

	rep := &Report{Rows: t.Len()}
	if t.Len() == 0 {
		return []RankEntry{}, rep, nil
	}

	parts := partitionRows(t, keyer)
	rep.Partitions = len(parts)

	ranked := make([][]RankEntry, len(parts))
	rankPart := func(pi int) {
		p := parts[pi]
		sorted := slices.Clone(p.rows)
		slices.SortFunc(sorted, func(x, y int) int {
			if ti >= 0 {
				ax, ay := t.Row(x).V[ti], t.Row(y).V[ti]
				if Less(ax, ay) {
					return -1
				}
				if Less(ay, ax) {
					return 1
				}
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
		entries := make([]RankEntry, len(sorted))
		for n, pos := range sorted {
			row := t.Row(pos)
			var tb any
			if ti >= 0 {
				tb = row.V[ti]
			}
			entries[n] = RankEntry{RowID: row.ID, Key: p.key, Tiebreak: tb, Rank: n + 1}
		}
		ranked[pi] = entries
	}

	workers := r.Workers
	if workers > len(parts) {
		workers = len(parts)
	}
	if workers <= 1 {
		for pi := range parts {
			rankPart(pi)
		}
	} else {
		var g errgroup.Group
		for _, shard := range shardPartitions(parts, workers) {
			shard := shard
			g.Go(func() error {
				for _, pi := range shard {
					rankPart(pi)
				}
				return nil
			})
		}
		// Ranking cannot fail per-partition; Wait only joins the workers.
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	out := make([]RankEntry, 0, t.Len())
	for _, entries := range ranked {
		out = append(out, entries...)
	}
	return out, rep, nil
}

// PruneResult is the audit diff of a Dedupe: exactly which rows were
// removed, by ID, ascending. Callers log or export it so a destructive
// prune is never a silent one.
type PruneResult struct {
	Removed []int64
}

// Count returns the number of rows removed.
func (p *PruneResult) Count() int { return len(p.Removed) }

// Dedupe deletes every duplicate row, rank > 1 under the same partitioning
// and ordering as Rank, keeping one keeper per identity key. The delete is
// in place and irreversible; take a materialized snapshot first if rollback
// matters. Applying Dedupe twice removes nothing the second time.
type Dedupe struct {
	IdentityBy []string
	Tiebreak   string
}

// Apply prunes t and returns the removed-row diff.
func (d Dedupe) Apply(t *table.Table) (*PruneResult, error) {
	entries, _, err := Rank{IdentityBy: d.IdentityBy, Tiebreak: d.Tiebreak}.Apply(t)
	if err != nil {
		return nil, fmt.Errorf("dedupe: %w", err)
	}
	res := &PruneResult{}
	for _, e := range entries {
		if e.Rank > 1 {
			res.Removed = append(res.Removed, e.RowID)
		}
	}
	sort.Slice(res.Removed, func(i, j int) bool { return res.Removed[i] < res.Removed[j] })
	if n := t.DeleteRows(res.Removed...); n != len(res.Removed) {
		// DeleteRows matched fewer IDs than ranked: the table changed under
		// us, which single-threaded batch semantics rule out.
		return nil, fmt.Errorf("dedupe: removed %d of %d ranked duplicates", n, len(res.Removed))
	}
	return res, nil
}
