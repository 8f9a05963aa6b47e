package probe

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSampleRows caps how many data rows inference looks at. Samples are
// byte-capped for CSV anyway; the row cap mostly bounds workbook reads.
const maxSampleRows = 10000

// readFileSample reads up to maxBytes from the start of path. When the cap
// was hit, the tail is cut back to the last newline so a half-read record
// cannot skew inference; a short file keeps its final line even without a
// trailing newline.
func readFileSample(path string, maxBytes int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()

	lr := &io.LimitedReader{R: f, N: int64(maxBytes)}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	if len(data) == maxBytes {
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}
	return data, nil
}

// readCSVSample parses CSV data using delim and returns headers and up to a
// capped number of data rows. It is tolerant of trimmed samples and
// malformed lines.
//
// BEST-EFFORT MODE:
//   - Allows variable field counts (FieldsPerRecord = -1).
//   - Skips records that cause parse errors instead of failing the whole read.
//   - Skips rows whose field count differs from the header, so downstream
//     inference only ever sees aligned columns.
func readCSVSample(data []byte, delim rune) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // allow variable fields; width enforced below

	// Read header: skip malformed/empty lines until a usable one or EOF.
	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return []string{}, [][]string{}, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = stripUTF8BOM(rec)
		break
	}

	rows := make([][]string, 0, 64)
	want := len(headers)
	for len(rows) < maxSampleRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) == 0 {
			continue // skip malformed/empty line
		}
		if len(rec) != want {
			continue // skip misaligned row to keep type inference accurate
		}
		rows = append(rows, rec)
	}

	return headers, rows, nil
}

// readXLSXSample reads headers and data rows from one sheet of a workbook.
// Spreadsheet readers drop trailing empty cells, so rows are padded to the
// header width instead of being skipped for misalignment.
func readXLSXSample(path, sheet string, maxRows int) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(all) == 0 {
		return []string{}, [][]string{}, nil
	}

	headers := stripUTF8BOM(all[0])
	want := len(headers)
	data := all[1:]
	if len(data) > maxRows {
		data = data[:maxRows]
	}

	rows := make([][]string, 0, len(data))
	for _, r := range data {
		if len(r) == 0 {
			continue
		}
		rows = append(rows, fitRowToWidth(r, want))
	}
	return headers, rows, nil
}

// fitRowToWidth truncates or pads a record to exactly n fields.
func fitRowToWidth(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	if len(row) > n {
		cp := make([]string, n)
		copy(cp, row[:n])
		return cp
	}
	cp := make([]string, n)
	copy(cp, row)
	// Missing fields are left as empty strings.
	return cp
}

// stripUTF8BOM removes a UTF-8 BOM from the first header field if present.
func stripUTF8BOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	if strings.HasPrefix(headers[0], "\uFEFF") {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}
	return headers
}
