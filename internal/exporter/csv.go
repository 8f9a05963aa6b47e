// Package exporter writes tables and audit reports back out as CSV. Output
// goes to analysts' spreadsheets, so the writer can prefix a UTF-8 BOM for
// Excel and formats cells the way the contracts read them in: empty for
// null, the contract date layout for dates.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tablekit/internal/schema"
	"tablekit/internal/table"
	"tablekit/internal/transform"
)

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Append     bool
	BOMPrefix  bool   // add UTF-8 BOM for Excel compatibility
	DateLayout string // cell format for dates; DefaultDateLayout when empty
}

// WriteTable writes a whole table to path, header row first.
func WriteTable(path string, t *table.Table, opt WriteOptions) error {
	slog.Info("writing table csv",
		slog.String("path", path),
		slog.String("table", t.Name),
		slog.Int("rows", t.Len()))

	return writeRows(path, opt, t.Schema().Names(), func(w *csv.Writer) error {
		layout := opt.DateLayout
		if layout == "" {
			layout = schema.DefaultDateLayout
		}
		record := make([]string, len(t.Schema()))
		for _, row := range t.Rows() {
			for i, v := range row.V {
				record[i] = formatCell(v, layout)
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("write row %d: %w", row.ID, err)
			}
		}
		return nil
	})
}

// WriteRanks writes a duplicate-scan report: row_id, rank, key columns are
// already encoded in the entries.
func WriteRanks(path string, entries []transform.RankEntry, opt WriteOptions) error {
	slog.Info("writing rank report", slog.String("path", path), slog.Int("entries", len(entries)))

	return writeRows(path, opt, []string{"row_id", "rank", "tiebreak"}, func(w *csv.Writer) error {
		layout := opt.DateLayout
		if layout == "" {
			layout = schema.DefaultDateLayout
		}
		for _, e := range entries {
			rec := []string{
				strconv.FormatInt(e.RowID, 10),
				strconv.Itoa(e.Rank),
				formatCell(e.Tiebreak, layout),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write entry for row %d: %w", e.RowID, err)
			}
		}
		return nil
	})
}

// WritePruneDiff writes the removed-row audit diff of a dedupe.
func WritePruneDiff(path string, res *transform.PruneResult, opt WriteOptions) error {
	slog.Info("writing prune diff", slog.String("path", path), slog.Int("removed", res.Count()))

	return writeRows(path, opt, []string{"removed_row_id"}, func(w *csv.Writer) error {
		for _, id := range res.Removed {
			if err := w.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
				return fmt.Errorf("write removed id %d: %w", id, err)
			}
		}
		return nil
	})
}

// writeRows opens path per the options, writes the header (unless
// appending), hands the csv.Writer to body, and flushes.
func writeRows(path string, opt WriteOptions, headers []string, body func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("exporter: create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opt.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("exporter: open %s: %w", path, err)
	}
	defer f.Close()

	if opt.BOMPrefix && !opt.Append {
		if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("exporter: write BOM: %w", err)
		}
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	if !opt.Append && len(headers) > 0 {
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("exporter: write headers: %w", err)
		}
	}
	if err := body(w); err != nil {
		return fmt.Errorf("exporter: %w", err)
	}
	w.Flush()
	return w.Error()
}

// formatCell renders one typed cell for CSV. Null is the empty string, the
// inverse of how the loaders read empties.
func formatCell(v any, dateLayout string) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case time.Time:
		return c.Format(dateLayout)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}
