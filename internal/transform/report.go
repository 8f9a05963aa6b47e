package transform

// RowIssue records one per-row soft failure: the row survived, the operation
// continued, and the caller decides whether the issue count is acceptable.
// Err wraps ErrParse or ErrFormat.
type RowIssue struct {
	RowID  int64
	Column string
	Value  string // offending cell, stringified
	Err    error
}

// Report summarizes one transform application. Issues hold the per-row soft
// failures in deterministic order (partition first-seen order, row order
// within a partition); nothing is silently suppressed.
type Report struct {
	Rows       int
	Partitions int
	Issues     []RowIssue
}

// Failed returns the number of rows that raised issues.
func (r *Report) Failed() int { return len(r.Issues) }
