package xlsx

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tablekit/internal/schema"
)

func housingContract() *schema.Contract {
	return &schema.Contract{
		Name: "housing",
		Fields: []schema.Field{
			{Name: "parcel_id", Type: "string", Required: true},
			{Name: "sale_date", Type: "date"},
			{Name: "sale_price", Type: "int"},
		},
	}
}

// writeWorkbook builds a one-sheet xlsx fixture under t.TempDir.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = "Sheet1"
	} else if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseFile_HeaderRowToTypedTable(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Parcel ID", "Sale Date", "Sale Price"},
		{"007-00-0125", "2013-04-19", "132000"},
		{"033-06-0350", "2014-01-07", "220000"},
	})

	tbl, stats, err := ParseFile(path, housingContract(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 0, stats.SkippedRows)
	assert.Equal(t, "housing", tbl.Name)

	v, err := tbl.Value(0, "sale_date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 4, 19, 0, 0, 0, 0, time.UTC), v)
	v, err = tbl.Value(1, "sale_price")
	require.NoError(t, err)
	assert.Equal(t, int64(220000), v)
}

func TestParseFile_TrailingEmptyCellsAreNull(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Parcel ID", "Sale Date", "Sale Price"},
		{"007-00-0125"},
	})

	tbl, stats, err := ParseFile(path, housingContract(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 0, stats.BadCells, "a trimmed tail is empty cells, not bad ones")

	v, err := tbl.Value(0, "sale_price")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseFile_RequiredEmptySkipsRow(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Parcel ID", "Sale Date", "Sale Price"},
		{"", "2013-04-19", "1"},
		{"007-00-0125", "2013-04-19", "2"},
	})

	tbl, stats, err := ParseFile(path, housingContract(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 1, stats.SkippedRows)
	assert.Equal(t, 1, tbl.Len())
}

func TestParseFile_BadCellNulledAndCounted(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Parcel ID", "Sale Date", "Sale Price"},
		{"007-00-0125", "19.04.2013", "n/a"},
	})

	tbl, stats, err := ParseFile(path, housingContract(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 2, stats.BadCells, "wrong date layout and non-numeric price")

	v, err := tbl.Value(0, "sale_date")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseFile_SheetSelection(t *testing.T) {
	path := writeWorkbook(t, "Sales 2013", [][]any{
		{"Parcel ID"},
		{"007-00-0125"},
	})
	c := &schema.Contract{Name: "housing", Fields: []schema.Field{{Name: "parcel_id", Type: "string"}}}

	tbl, _, err := ParseFile(path, c, Options{Sheet: "Sales 2013"})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	// Empty selects the first sheet.
	tbl, _, err = ParseFile(path, c, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	_, _, err = ParseFile(path, c, Options{Sheet: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `read sheet "Nope"`)
}

func TestParseFile_HeaderMapAndExtraColumns(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"PIN", "Sale Date", "Sale Price", "Notes"},
		{"007-00-0125", "2013-04-19", "1", "keep out"},
	})

	tbl, stats, err := ParseFile(path, housingContract(), Options{
		HeaderMap: map[string]string{"pin": "parcel_id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, -1, tbl.ColumnIndex("notes"))

	v, err := tbl.Value(0, "parcel_id")
	require.NoError(t, err)
	assert.Equal(t, "007-00-0125", v)
}

func TestParseFile_MissingRequiredHeaderFails(t *testing.T) {
	path := writeWorkbook(t, "", [][]any{
		{"Sale Date", "Sale Price"},
		{"2013-04-19", "1"},
	})

	_, _, err := ParseFile(path, housingContract(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parcel_id")
}

func TestParseFile_OpenAndEmptyErrors(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"), housingContract(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open")

	path := writeWorkbook(t, "", nil)
	_, _, err = ParseFile(path, housingContract(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}
