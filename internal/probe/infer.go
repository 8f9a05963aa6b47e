package probe

import (
	"strconv"
	"strings"
	"time"
)

// inferTypes returns one inferred value class per header based on the
// sampled rows: "integer", "boolean", "real", "date", "timestamp" or "text".
func inferTypes(headers []string, rows [][]string) []string {
	n := len(headers)
	cols := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			cols[i] = append(cols[i], row[i])
		}
	}
	types := make([]string, n)
	for i := 0; i < n; i++ {
		types[i] = inferTypeForColumn(cols[i])
	}
	return types
}

// inferTypeForColumn guesses the value class of one column. The heuristic
// requires all non-empty values to satisfy a narrower class before it is
// chosen; integer wins over boolean so an all-0/1 column stays numeric.
func inferTypeForColumn(values []string) string {
	nonEmpty := nonEmptyTrimmed(values)
	if len(nonEmpty) == 0 {
		return "text"
	}
	if allMatch(nonEmpty, isInt) {
		return "integer"
	}
	if allMatch(nonEmpty, isBool) {
		return "boolean"
	}
	// Distinguish float from int to keep ints as integer.
	if allMatch(nonEmpty, isFloat) {
		return "real"
	}
	// Dates and timestamps (prefer timestamp when any time component exists).
	allDate := true
	anyTime := false
	for _, v := range nonEmpty {
		ok, hasTime := parseDateOrTimestamp(v)
		if !ok {
			allDate = false
			break
		}
		if hasTime {
			anyTime = true
		}
	}
	if allDate {
		if anyTime {
			return "timestamp"
		}
		return "date"
	}
	return "text"
}

// nonEmptyTrimmed returns the non-empty, trimmed values.
func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// allMatch reports whether every value satisfies fn.
func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isBool accepts common textual booleans and 1/0.
func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "t", "f", "yes", "no", "y", "n", "1", "0":
		return true
	default:
		return false
	}
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation floats.
// If s parses as int, we treat it as NOT float (to keep ints as integer).
func isFloat(s string) bool {
	if isInt(s) {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// parseDateOrTimestamp tries to parse s as a timestamp first, then a date.
// It returns ok=true when one of the layouts matched and hasTime whether
// time components were present.
func parseDateOrTimestamp(s string) (ok bool, hasTime bool) {
	st := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, st); err == nil {
			return true, true
		}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, st); err == nil {
			return true, false
		}
	}
	return false, false
}

// dateLayouts are common date formats (no time component).
var dateLayouts = []string{
	"2006-01-02",  // ISO
	"02.01.2006",  // DMY dot
	"01.02.2006",  // MDY dot
	"02/01/2006",  // DMY slash
	"01/02/2006",  // MDY slash
	"2 Jan 2006",  // DMY textual day
	"02-Jan-2006", // DMY dash textual month
	"2006/01/02",  // ISO slashy
	"20060102",    // basic ISO
}

// timestampLayouts are common timestamp formats (with time component).
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05", // DMY
	"01/02/2006 15:04:05", // MDY
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
}

// dateLayoutPreference returns a tie-break weight for a date layout.
// Higher numbers win ties. DMY (common in EU exports) beats ISO beats MDY.
func dateLayoutPreference(layout string) int {
	switch layout {
	// DMY
	case "02.01.2006", "02/01/2006", "2 Jan 2006", "02-Jan-2006":
		return 3
	// ISO-ish
	case "2006-01-02", "2006/01/02", "20060102":
		return 2
	// MDY
	case "01.02.2006", "01/02/2006":
		return 1
	default:
		return 0
	}
}

// timestampLayoutPreference returns a tie-break weight for timestamp
// layouts. Strict RFC3339Nano first, then RFC3339, then the rest equally.
func timestampLayoutPreference(layout string) int {
	switch layout {
	case time.RFC3339Nano:
		return 3
	case time.RFC3339:
		return 2
	default:
		return 1
	}
}

// selectBestLayout scores each candidate layout by how many samples it
// matches. The layout with the highest score is chosen. On ties, prefer the
// layout with the higher preference (as given by pref), and finally the one
// that appears first in the layouts slice.
//
// samples should be raw, non-empty string values from a single column.
func selectBestLayout(samples []string, layouts []string, pref func(string) int) string {
	if len(samples) == 0 || len(layouts) == 0 {
		return ""
	}
	scores := make([]int, len(layouts))
	for _, s := range samples {
		for i, lay := range layouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	// Pick the best by (score, preference, order).
	bestIdx := -1
	bestScore := -1
	bestPref := -1
	for i := range layouts {
		sc := scores[i]
		if sc < bestScore {
			continue
		}
		if sc > bestScore {
			bestIdx, bestScore, bestPref = i, sc, pref(layouts[i])
			continue
		}
		// tie on score: preference decides
		if p := pref(layouts[i]); p > bestPref {
			bestIdx, bestPref = i, p
		}
		// tie on preference: keep earlier (stable)
	}
	if bestIdx >= 0 && bestScore > 0 {
		return layouts[bestIdx]
	}
	return ""
}

// detectColumnLayouts returns a layout string per column (empty when
// unknown) for columns inferred as date/timestamp. It picks the layout that
// maximizes matches across all non-empty samples in that column.
func detectColumnLayouts(rows [][]string, inferred []string) []string {
	n := len(inferred)
	out := make([]string, n)
	if len(rows) == 0 {
		return out
	}

	cols := make([][]string, n)
	for _, r := range rows {
		for c := 0; c < n && c < len(r); c++ {
			if v := strings.TrimSpace(r[c]); v != "" {
				cols[c] = append(cols[c], v)
			}
		}
	}

	for col := 0; col < n; col++ {
		switch inferred[col] {
		case "timestamp":
			out[col] = selectBestLayout(cols[col], timestampLayouts, timestampLayoutPreference)
		case "date":
			out[col] = selectBestLayout(cols[col], dateLayouts, dateLayoutPreference)
		}
	}
	return out
}

// chooseMajorityLayout picks a single dataset-level date layout, used for
// the starter recipe's export sink so written dates match the input's
// style. It counts per-column detected layouts for date/timestamp columns;
// ties go to the preferred layout. Returns "" if nothing was detected.
func chooseMajorityLayout(colLayouts []string, inferred []string) string {
	type cand struct {
		layout string
		count  int
		pref   int
	}

	counts := map[string]*cand{}
	for i := range colLayouts {
		t := inferred[i]
		lay := colLayouts[i]
		if lay == "" {
			continue
		}
		if t != "date" && t != "timestamp" {
			continue
		}
		if counts[lay] == nil {
			pref := 0
			if t == "date" {
				pref = dateLayoutPreference(lay)
			} else {
				pref = timestampLayoutPreference(lay)
			}
			counts[lay] = &cand{layout: lay, pref: pref}
		}
		counts[lay].count++
	}

	var best *cand
	for _, c := range counts {
		if best == nil || c.count > best.count || (c.count == best.count && c.pref > best.pref) {
			cp := *c
			best = &cp
		}
	}
	if best != nil {
		return best.layout
	}
	return ""
}

// contractTypeFromInference maps inferred value classes onto contract field
// types. Timestamps collapse onto "date": date cells carry a time component
// and the detected layout rides along on the field.
func contractTypeFromInference(inf string) string {
	switch inf {
	case "integer":
		return "int"
	case "real":
		return "float"
	case "boolean":
		return "bool"
	case "date", "timestamp":
		return "date"
	default:
		return "string"
	}
}

// allNonEmptySample reports true if every sampled row has a non-empty value
// at colIdx.
func allNonEmptySample(rows [][]string, colIdx int) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if colIdx >= len(r) || strings.TrimSpace(r[colIdx]) == "" {
			return false
		}
	}
	return true
}

// truncateFieldName keeps field names under PostgreSQL's 63-character
// identifier limit, splicing the first 10 and last 53 characters.
func truncateFieldName(s string) string {
	if len(s) > 63 {
		return s[:10] + s[len(s)-53:]
	}
	return s
}
