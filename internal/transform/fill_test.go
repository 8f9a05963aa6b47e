package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablekit/internal/table"
)

func addrTable(t *testing.T, rows ...[2]any) *table.Table {
	t.Helper()
	tbl := table.New("housing",
		table.Column{Name: "parcel_id", Type: table.String},
		table.Column{Name: "property_address", Type: table.String},
	)
	for _, r := range rows {
		_, err := tbl.Append(r[0], r[1])
		require.NoError(t, err)
	}
	return tbl
}

func addrs(t *testing.T, tbl *table.Table) []any {
	t.Helper()
	out := make([]any, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		v, err := tbl.Value(i, "property_address")
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestFillNulls_CopiesFromSiblingWithSameKey(t *testing.T) {
	tbl := addrTable(t,
		[2]any{"025-07-0031", "410 ROSEHILL CT"},
		[2]any{"025-07-0031", nil},
		[2]any{"041-02-0088", nil},
		[2]any{"041-02-0088", "1728 PECAN ST"},
	)

	n, err := FillNulls{JoinKey: "parcel_id", Target: "property_address"}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{"410 ROSEHILL CT", "410 ROSEHILL CT", "1728 PECAN ST", "1728 PECAN ST"},
		addrs(t, tbl))
}

func TestFillNulls_LowestRowIDDonorWins(t *testing.T) {
	tbl := addrTable(t,
		[2]any{"p", nil},
		[2]any{"p", "FIRST DONOR"},
		[2]any{"p", "SECOND DONOR"},
	)

	n, err := FillNulls{JoinKey: "parcel_id", Target: "property_address"}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{"FIRST DONOR", "FIRST DONOR", "SECOND DONOR"}, addrs(t, tbl))
}

func TestFillNulls_NeverOverwritesAndIsIdempotent(t *testing.T) {
	tbl := addrTable(t,
		[2]any{"p", "KEEP ME"},
		[2]any{"p", "ALSO KEEP"},
		[2]any{"p", nil},
	)

	op := FillNulls{JoinKey: "parcel_id", Target: "property_address"}
	n, err := op.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{"KEEP ME", "ALSO KEEP", "KEEP ME"}, addrs(t, tbl))

	n, err = op.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing left to fill")
}

func TestFillNulls_NullJoinKeyRowsUntouched(t *testing.T) {
	tbl := addrTable(t,
		[2]any{nil, "SOME ADDRESS"},
		[2]any{nil, nil},
	)

	n, err := FillNulls{JoinKey: "parcel_id", Target: "property_address"}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "unknown keys are no evidence of a match")
	assert.Equal(t, []any{"SOME ADDRESS", nil}, addrs(t, tbl))
}

func TestFillNulls_NoDonorStaysNull(t *testing.T) {
	tbl := addrTable(t,
		[2]any{"lonely", nil},
		[2]any{"other", "X"},
	)

	n, err := FillNulls{JoinKey: "parcel_id", Target: "property_address"}.Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []any{nil, "X"}, addrs(t, tbl))
}

func TestFillNulls_Validation(t *testing.T) {
	tbl := addrTable(t)

	_, err := FillNulls{JoinKey: "parcel_id", Target: "parcel_id"}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema, "join key must differ from target")

	_, err = FillNulls{JoinKey: "nope", Target: "property_address"}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = FillNulls{JoinKey: "parcel_id", Target: "nope"}.Apply(tbl)
	assert.ErrorIs(t, err, ErrSchema)
}
