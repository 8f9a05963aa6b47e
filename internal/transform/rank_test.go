package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablekit/internal/table"
)

// parcelTable builds the housing-record shape used by the duplicate scan:
// parcel_id, sale_date, sale_price, legal_reference.
func parcelTable(t *testing.T, rows ...[4]any) *table.Table {
	t.Helper()
	tbl := table.New("housing",
		table.Column{Name: "parcel_id", Type: table.String},
		table.Column{Name: "sale_date", Type: table.String},
		table.Column{Name: "sale_price", Type: table.Int},
		table.Column{Name: "legal_reference", Type: table.String},
	)
	for _, r := range rows {
		_, err := tbl.Append(r[0], r[1], r[2], r[3])
		require.NoError(t, err)
	}
	return tbl
}

func ranksByID(entries []RankEntry) map[int64]int {
	out := make(map[int64]int, len(entries))
	for _, e := range entries {
		out[e.RowID] = e.Rank
	}
	return out
}

func TestRank_ContiguousWithinPartition(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "20130419-1"},
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "20130419-1"}, // exact dup
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "20130419-1"}, // exact dup
		[4]any{"033-06-0350", "2014-01-07", int64(220000), "20140107-9"},
	)

	entries, rep, err := Rank{
		IdentityBy: []string{"parcel_id", "sale_date", "sale_price", "legal_reference"},
		Tiebreak:   "legal_reference",
	}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Partitions)
	require.Len(t, entries, 4)

	ranks := ranksByID(entries)
	assert.Equal(t, 1, ranks[1])
	assert.Equal(t, 2, ranks[2])
	assert.Equal(t, 3, ranks[3])
	assert.Equal(t, 1, ranks[4])
}

func TestRank_TiebreakAscendingNullsFirst(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"p1", "2013-04-19", int64(1), "ref-b"},
		[4]any{"p1", "2013-04-19", int64(1), nil},
		[4]any{"p1", "2013-04-19", int64(1), "ref-a"},
	)

	entries, _, err := Rank{
		IdentityBy: []string{"parcel_id", "sale_date", "sale_price"},
		Tiebreak:   "legal_reference",
	}.Apply(tbl)
	require.NoError(t, err)

	ranks := ranksByID(entries)
	assert.Equal(t, 1, ranks[2], "null tiebreak sorts first")
	assert.Equal(t, 2, ranks[3], "ref-a before ref-b")
	assert.Equal(t, 3, ranks[1])
}

func TestRank_EqualTiebreakFallsBackToRowID(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"p1", "d", int64(1), "same"},
		[4]any{"p1", "d", int64(1), "same"},
	)

	entries, _, err := Rank{
		IdentityBy: []string{"parcel_id"},
		Tiebreak:   "legal_reference",
	}.Apply(tbl)
	require.NoError(t, err)

	ranks := ranksByID(entries)
	assert.Equal(t, 1, ranks[1], "earlier insertion wins equal tiebreaks")
	assert.Equal(t, 2, ranks[2])
}

func TestRank_NullIdentityValuesGroupTogether(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{nil, "d", int64(1), "a"},
		[4]any{nil, "d", int64(1), "b"},
		[4]any{"p1", "d", int64(1), "c"},
	)

	entries, rep, err := Rank{IdentityBy: []string{"parcel_id"}, Tiebreak: "legal_reference"}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Partitions, "null keys form one partition, not one each")

	ranks := ranksByID(entries)
	assert.Equal(t, 1, ranks[1])
	assert.Equal(t, 2, ranks[2])
	assert.Equal(t, 1, ranks[3])
}

func TestRank_EntriesFollowPartitionThenRankOrder(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"p2", "d", int64(1), "a"},
		[4]any{"p1", "d", int64(1), "b"},
		[4]any{"p2", "d", int64(1), "c"},
	)

	entries, _, err := Rank{IdentityBy: []string{"parcel_id"}, Tiebreak: "legal_reference"}.Apply(tbl)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// p2 was seen first: its ranks 1,2 come before p1's single entry.
	assert.Equal(t, int64(1), entries[0].RowID)
	assert.Equal(t, int64(3), entries[1].RowID)
	assert.Equal(t, int64(2), entries[2].RowID)
}

func TestRank_EmptyTableAndMissingColumns(t *testing.T) {
	tbl := parcelTable(t)

	entries, rep, err := Rank{IdentityBy: []string{"parcel_id"}}.Apply(tbl)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, rep.Partitions)

	_, _, err = Rank{}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema, "empty identity set is rejected")

	_, _, err = Rank{IdentityBy: []string{"nope"}}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema)

	_, _, err = Rank{IdentityBy: []string{"parcel_id"}, Tiebreak: "nope"}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestRank_ParallelMatchesSequential(t *testing.T) {
	var rows [][4]any
	for i := 0; i < 180; i++ {
		rows = append(rows, [4]any{
			[]string{"p1", "p2", "p3", "p4", "p5"}[i%5],
			"2013-04-19",
			int64(i % 7),
			[]string{"x", "y", "z"}[i%3],
		})
	}
	seq := parcelTable(t, rows...)
	par := parcelTable(t, rows...)

	op := Rank{IdentityBy: []string{"parcel_id", "sale_price"}, Tiebreak: "legal_reference"}
	seqEntries, _, err := op.Apply(seq)
	require.NoError(t, err)

	op.Workers = 4
	parEntries, _, err := op.Apply(par)
	require.NoError(t, err)

	assert.Equal(t, seqEntries, parEntries)
}

func TestDedupe_RemovesExactlyTheHigherRanks(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "ref"},
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "ref"},
		[4]any{"033-06-0350", "2014-01-07", int64(220000), "ref2"},
		[4]any{"007-00-0125", "2013-04-19", int64(132000), "ref"},
	)

	// Rank a frozen copy first: the prune diff must match its rank>1 set.
	wantRemoved := []int64{}
	entries, _, err := Rank{
		IdentityBy: []string{"parcel_id", "sale_date", "sale_price", "legal_reference"},
		Tiebreak:   "legal_reference",
	}.Apply(tbl.Clone())
	require.NoError(t, err)
	for _, e := range entries {
		if e.Rank > 1 {
			wantRemoved = append(wantRemoved, e.RowID)
		}
	}

	res, err := Dedupe{
		IdentityBy: []string{"parcel_id", "sale_date", "sale_price", "legal_reference"},
		Tiebreak:   "legal_reference",
	}.Apply(tbl)
	require.NoError(t, err)

	assert.ElementsMatch(t, wantRemoved, res.Removed)
	assert.Equal(t, []int64{2, 4}, res.Removed, "diff is sorted by row ID")
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, 2, tbl.Len())

	// Keeper and the distinct row survive.
	v, err := tbl.Value(0, "parcel_id")
	require.NoError(t, err)
	assert.Equal(t, "007-00-0125", v)
}

func TestDedupe_Idempotent(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"p1", "d", int64(1), "r"},
		[4]any{"p1", "d", int64(1), "r"},
	)

	op := Dedupe{IdentityBy: []string{"parcel_id", "sale_date", "sale_price", "legal_reference"}, Tiebreak: "legal_reference"}
	res, err := op.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())

	res, err = op.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count(), "second prune removes nothing")
	assert.Equal(t, 1, tbl.Len())
}

func TestDedupe_DistinctRowsUntouched(t *testing.T) {
	tbl := parcelTable(t,
		[4]any{"p1", "d1", int64(1), "r1"},
		[4]any{"p2", "d2", int64(2), "r2"},
	)

	res, err := Dedupe{IdentityBy: []string{"parcel_id", "sale_date", "sale_price", "legal_reference"}}.Apply(tbl)
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Equal(t, 2, tbl.Len())
}
