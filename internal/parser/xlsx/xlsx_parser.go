// Package xlsx loads Excel workbooks into typed tables under a column
// contract. It shares the CSV loader's posture: header normalization, header
// maps, null for empty cells, fail-soft rows with counted skips. Excel is
// how the housing dataset arrives; everything downstream sees only tables.
package xlsx

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"tablekit/internal/parser/header"
	"tablekit/internal/schema"
	"tablekit/internal/table"
)

// Options configures workbook loading.
type Options struct {
	// Sheet names the worksheet to read. Empty means the first sheet.
	Sheet string

	// HeaderMap maps source header names (after normalization) to contract
	// field names, over and above the contract's own map.
	HeaderMap map[string]string
}

// Stats mirrors the CSV loader's counters.
type Stats struct {
	Rows        int
	SkippedRows int
	BadCells    int
}

const logLimit = 400

// ParseFile reads one worksheet into a table shaped by the contract. The
// first row must be a header row; Excel exports without headers are not a
// thing the housing pipeline produces.
func ParseFile(path string, c *schema.Contract, opt Options) (*table.Table, *Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("xlsx: open %s: %w", path, err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("xlsx: %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("xlsx: sheet %q is empty", sheet)
	}

	ts, err := c.TableSchema()
	if err != nil {
		return nil, nil, err
	}
	tbl := table.New(c.Name, ts...)

	headers := header.Normalize(rows[0], header.Merge(c.HeaderMap, opt.HeaderMap))
	type binding struct {
		field *schema.Field
		out   int
	}
	bindings := make([]binding, len(headers))
	matched := make(map[string]bool, len(c.Fields))
	for i, name := range headers {
		for fi := range c.Fields {
			if c.Fields[fi].Name == name {
				bindings[i] = binding{field: &c.Fields[fi], out: fi}
				matched[name] = true
				break
			}
		}
	}
	for _, fld := range c.Fields {
		if matched[fld.Name] {
			continue
		}
		if fld.Required {
			return nil, nil, fmt.Errorf("xlsx: required field %q not found in headers %v", fld.Name, headers)
		}
		log.Printf("xlsx: field %q has no source column; loading as null", fld.Name)
	}

	stats := &Stats{}
	for line, row := range rows[1:] {
		// GetRows trims trailing empty cells; treat the missing tail as
		// empty rather than a width mismatch.
		vals := make([]any, len(c.Fields))
		missingRequired := false
		for i, b := range bindings {
			if b.field == nil {
				continue
			}
			raw := ""
			if i < len(row) {
				raw = row[i]
			}
			v, err := b.field.Convert(raw)
			if err != nil {
				if stats.BadCells < logLimit {
					log.Printf("xlsx: row %d: %v; cell set to null", line+2, err)
				}
				stats.BadCells++
				v = nil
			}
			if v == nil && b.field.Required {
				missingRequired = true
			}
			vals[b.out] = v
		}
		if missingRequired {
			if stats.SkippedRows < logLimit {
				log.Printf("xlsx: skipping row %d: required field empty", line+2)
			}
			stats.SkippedRows++
			continue
		}
		if _, err := tbl.Append(vals...); err != nil {
			return nil, nil, fmt.Errorf("xlsx: row %d: %w", line+2, err)
		}
		stats.Rows++
	}
	return tbl, stats, nil
}
