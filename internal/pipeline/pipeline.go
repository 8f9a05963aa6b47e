// Package pipeline executes recipes: load a source file into a typed table
// under its column contract, apply the configured steps in order, and
// deliver the final table to each sink.
//
// Execution is batch and synchronous: each step consumes the previous
// step's table and produces the next (per-partition parallelism inside
// cumsum and rank is an implementation detail of those transforms). Hard
// errors abort the run with step context attached; per-row soft issues are
// counted, logged capped, and carried in the result, never silently
// dropped.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"tablekit/internal/config"
	"tablekit/internal/metrics"
	"tablekit/internal/parser/csv"
	"tablekit/internal/parser/xlsx"
	"tablekit/internal/schema"
	"tablekit/internal/table"
	"tablekit/internal/transform"
)

// RunOptions controls one recipe execution.
type RunOptions struct {
	// Force overrides per-step confirm for destructive steps (dedupe,
	// drop).
	Force bool

	// Store receives snapshot sinks. When nil a fresh store is created and
	// returned on the result.
	Store *table.Store

	// BaseDir anchors relative source, contract and output paths; callers
	// typically pass the recipe file's directory. Empty means the working
	// directory.
	BaseDir string

	// Env supplies process tuning; read from the environment when nil.
	Env *config.Env
}

// StepResult records what one step did.
type StepResult struct {
	Op       string
	Duration time.Duration
	Rows     int // table size after the step
	Affected int // op-defined: cells written, rows pruned, ranks assigned
	Issues   int // per-row soft failures
}

// RunStats aggregates the run's row accounting, mirroring the metrics row
// kinds.
type RunStats struct {
	Loaded   int
	Skipped  int
	BadCells int
	Issues   int
	Pruned   int
	Filled   int
	Exported int64
	Inserted int64
}

// RunResult is everything a completed run produced.
type RunResult struct {
	Table     *table.Table
	Store     *table.Store
	Steps     []StepResult
	Snapshots []string
	Stats     RunStats
}

// Run executes recipe r end to end. The context applies to storage sinks;
// the in-memory stages do not block.
func Run(ctx context.Context, r config.Recipe, opts RunOptions) (*RunResult, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("pipeline: recipe name required")
	}
	env := opts.Env
	if env == nil {
		e, err := config.LoadEnv()
		if err != nil {
			return nil, err
		}
		env = &e
	}
	rt := env.EffectiveRuntime(r.Runtime)

	slog.Info("run starting",
		slog.String("recipe", r.Name),
		slog.Int("workers", rt.Workers),
		slog.Int("batch_size", rt.BatchSize))

	res := &RunResult{Store: opts.Store}
	if res.Store == nil {
		res.Store = table.NewStore()
	}

	start := time.Now()
	t, st, err := loadSource(r.Source, opts.BaseDir)
	metrics.RecordStep(r.Name, "load", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.Source.Path, err)
	}
	res.Stats.Loaded = st.rows
	res.Stats.Skipped = st.skipped
	res.Stats.BadCells = st.badCells
	metrics.RecordRows(r.Name, "loaded", int64(st.rows))
	metrics.RecordRows(r.Name, "skipped", int64(st.skipped))
	metrics.RecordRows(r.Name, "bad_cells", int64(st.badCells))
	slog.Info("source loaded",
		slog.String("recipe", r.Name),
		slog.Int("rows", st.rows),
		slog.Int("skipped", st.skipped),
		slog.Int("bad_cells", st.badCells))

	for i, s := range r.Steps {
		stepStart := time.Now()
		nt, out, err := applyStep(t, s, rt, opts.Force, opts.BaseDir)
		d := time.Since(stepStart)
		metrics.RecordStep(r.Name, s.Op, err, d)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		t = nt

		res.Steps = append(res.Steps, StepResult{
			Op:       s.Op,
			Duration: d,
			Rows:     t.Len(),
			Affected: out.affected,
			Issues:   len(out.issues),
		})
		res.Stats.Issues += len(out.issues)
		switch s.Op {
		case "dedupe":
			res.Stats.Pruned += out.affected
			metrics.RecordRows(r.Name, "pruned", int64(out.affected))
		case "fill":
			res.Stats.Filled += out.affected
			metrics.RecordRows(r.Name, "filled", int64(out.affected))
		}
		metrics.RecordRows(r.Name, "issues", int64(len(out.issues)))
		logStepIssues(s.Op, out.issues)
		slog.Info("step done",
			slog.String("op", s.Op),
			slog.Int("rows", t.Len()),
			slog.Int("affected", out.affected),
			slog.Int("issues", len(out.issues)),
			slog.Duration("took", d))
	}

	for i, s := range r.Sinks {
		sinkStart := time.Now()
		err := runSink(ctx, t, s, r.Name, rt, opts.BaseDir, res)
		metrics.RecordStep(r.Name, s.Kind, err, time.Since(sinkStart))
		if err != nil {
			return nil, fmt.Errorf("sink %d (%s): %w", i, s.Kind, err)
		}
	}

	res.Table = t
	logSummary(r.Name, &res.Stats, t.Len())
	return res, nil
}

// sourceStats unifies the loader counters.
type sourceStats struct {
	rows     int
	skipped  int
	badCells int
}

// loadSource opens the input, resolves its contract and parses it into a
// typed table. The format comes from source.format, or from the file
// extension when unset.
func loadSource(src config.Source, baseDir string) (*table.Table, sourceStats, error) {
	var st sourceStats
	path := resolvePath(baseDir, src.Path)

	format := strings.ToLower(src.Format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = "csv"
		case ".xlsx":
			format = "xlsx"
		default:
			return nil, st, fmt.Errorf("cannot infer a loader for %q; set source.format", src.Path)
		}
	}

	contract, err := loadContract(src, baseDir)
	if err != nil {
		return nil, st, err
	}

	switch format {
	case "csv":
		p := csv.NewParser(csv.Options{
			HasHeader: src.Options.Bool("has_header", true),
			Comma:     src.Options.Rune("comma", ','),
			TrimSpace: src.Options.Bool("trim_space", true),
			HeaderMap: src.Options.StringMap("header_map"),
		})
		t, ps, err := p.ParseFile(path, contract)
		if err != nil {
			return nil, st, err
		}
		return t, sourceStats{rows: ps.Rows, skipped: ps.SkippedRows, badCells: ps.BadCells}, nil

	case "xlsx":
		t, xs, err := xlsx.ParseFile(path, contract, xlsx.Options{
			Sheet:     src.Options.String("sheet", ""),
			HeaderMap: src.Options.StringMap("header_map"),
		})
		if err != nil {
			return nil, st, err
		}
		return t, sourceStats{rows: xs.Rows, skipped: xs.SkippedRows, badCells: xs.BadCells}, nil

	default:
		return nil, st, fmt.Errorf("unsupported source format %q", src.Format)
	}
}

// loadContract resolves the column contract: the contract file path wins,
// an inline options.contract object is the fallback.
func loadContract(src config.Source, baseDir string) (*schema.Contract, error) {
	if src.Contract != "" {
		return schema.Load(resolvePath(baseDir, src.Contract))
	}
	raw := src.Options.Any("contract")
	if raw == nil {
		return nil, fmt.Errorf("a column contract is required: set source.contract or an inline options.contract")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("inline contract marshal: %w", err)
	}
	var c schema.Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("inline contract: %w", err)
	}
	if c.Name == "" {
		c.Name = "inline"
	}
	return &c, nil
}

// resolvePath anchors relative paths at base; absolute paths pass through.
func resolvePath(base, p string) string {
	if p == "" || base == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// issueLogLimit caps how many per-row issues are logged per step; the full
// count always lands in the result and the metrics.
const issueLogLimit = 3

func logStepIssues(op string, issues []transform.RowIssue) {
	if len(issues) == 0 {
		return
	}
	shown := len(issues)
	if shown > issueLogLimit {
		shown = issueLogLimit
	}
	slog.Warn("step issues",
		slog.String("op", op),
		slog.Int("count", len(issues)),
		slog.Int("showing", shown))
	for _, iss := range issues[:shown] {
		slog.Warn("row issue",
			slog.String("op", op),
			slog.Int64("row", iss.RowID),
			slog.String("column", iss.Column),
			slog.String("value", iss.Value),
			slog.Any("err", iss.Err))
	}
}

// logSummary prints the final row accounting for the run.
func logSummary(recipe string, st *RunStats, finalRows int) {
	slog.Info("run summary",
		slog.String("recipe", recipe),
		slog.Int("loaded", st.Loaded),
		slog.Int("skipped", st.Skipped),
		slog.Int("bad_cells", st.BadCells),
		slog.Int("issues", st.Issues),
		slog.Int("pruned", st.Pruned),
		slog.Int("filled", st.Filled),
		slog.Int64("exported", st.Exported),
		slog.Int64("inserted", st.Inserted),
		slog.Int("final_rows", finalRows))
}
