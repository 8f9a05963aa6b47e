// Package csv loads CSV files into typed tables under a column contract.
// Parsing streams through encoding/csv without buffering the whole file, so
// multi-GB epidemic series load in bounded memory.
//
// The loader is deliberately fail-soft at row granularity, the same posture
// the rest of the engine takes: a malformed row or a cell that refuses its
// declared type never aborts the load. Bad cells become nulls, rows missing
// a required value are dropped, and both are counted in Stats and logged
// (capped, so a systematically broken file does not flood the log).
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"tablekit/internal/parser/header"
	"tablekit/internal/schema"
	"tablekit/internal/table"
)

// Options configures parsing. All fields are optional; zero values get
// sensible defaults.
type Options struct {
	// HasHeader indicates the first row carries column headers. When false,
	// CSV columns map positionally onto the contract's fields.
	HasHeader bool

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TrimSpace trims leading/trailing spaces from every raw cell before
	// conversion.
	TrimSpace bool

	// HeaderMap maps source header names (after normalization) to contract
	// field names. Entries here take precedence over the contract's own
	// header map.
	HeaderMap map[string]string
}

// Stats reports what the loader did: rows appended, rows dropped, and cells
// nulled because their value refused the declared type.
type Stats struct {
	Rows        int
	SkippedRows int
	BadCells    int
}

// logLimit caps per-problem log lines; the totals still land in Stats.
const logLimit = 400

// Parser parses CSV input into tables. Reusable across inputs, not
// concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads CSV from r and returns a table shaped by the contract.
//
// With a header row, source headers are normalized (BOM strip, lowercase,
// accent folding, non-identifier characters to underscores) and then mapped
// through the header maps; headers that match no contract field are
// ignored, and a required contract field with no matching header is an
// error before any row is read. Without a header row, columns map
// positionally and the width must equal the contract's field count.
func (p *Parser) Parse(r io.Reader, c *schema.Contract) (*table.Table, *Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	ts, err := c.TableSchema()
	if err != nil {
		return nil, nil, err
	}
	tbl := table.New(c.Name, ts...)

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1 // width enforced here, not by encoding/csv

	// binding[i] says where CSV column i goes: the contract field that
	// converts it and its position in the output row. field==nil means the
	// column is ignored.
	type binding struct {
		field *schema.Field
		out   int
	}
	var bindings []binding
	width := 0

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, nil, fmt.Errorf("read csv header: %w", err)
		}
		headers := header.Normalize(h, header.Merge(c.HeaderMap, p.opt.HeaderMap))
		bindings = make([]binding, len(headers))
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
		for _, f := range c.Fields {
			if matched[f.Name] {
				continue
			}
			if f.Required {
				return nil, nil, fmt.Errorf("csv: required field %q not found in headers %v", f.Name, headers)
			}
			log.Printf("csv: field %q has no source column; loading as null", f.Name)
		}
		width = len(headers)
	} else {
		bindings = make([]binding, len(c.Fields))
		for i := range c.Fields {
			bindings[i] = binding{field: &c.Fields[i], out: i}
		}
		width = len(c.Fields)
	}

	stats := &Stats{}
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if stats.SkippedRows < logLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			stats.SkippedRows++
			continue
		}
		if len(row) != width {
			if stats.SkippedRows < logLimit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, width, len(row))
			}
			stats.SkippedRows++
			continue
		}

		vals := make([]any, len(c.Fields))
		missingRequired := false
		for i, raw := range row {
			b := bindings[i]
			if b.field == nil {
				continue
			}
			if p.opt.TrimSpace {
				raw = strings.TrimSpace(raw)
			}
			v, err := b.field.Convert(raw)
			if err != nil {
				if stats.BadCells < logLimit {
					log.Printf("csv: row %d: %v; cell set to null", line, err)
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
				log.Printf("csv: skipping row %d: required field empty", line)
			}
			stats.SkippedRows++
			continue
		}

		if _, err := tbl.Append(vals...); err != nil {
			return nil, nil, fmt.Errorf("csv: row %d: %w", line, err)
		}
		stats.Rows++
	}
	return tbl, stats, nil
}
