package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"tablekit/internal/config"
	"tablekit/internal/exporter"
	"tablekit/internal/metrics"
	"tablekit/internal/storage"
	"tablekit/internal/table"
	"tablekit/internal/transform"
)

// newRepositoryFn is a seam so sink tests can substitute a fake repository
// for the registered backends.
var newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.New(ctx, cfg)
}

// runSink delivers the final table to one sink. Export and materialize
// refuse an empty table: writing a header-only file or an empty
// destination table is a broken run, not a result.
func runSink(ctx context.Context, t *table.Table, s config.Sink, recipe string, rt config.RuntimeConfig, baseDir string, res *RunResult) error {
	switch s.Kind {
	case "export":
		if err := transform.RequireRows(t); err != nil {
			return err
		}
		path := resolvePath(baseDir, s.File.Path)
		if err := exporter.WriteTable(path, t, exporter.WriteOptions{
			Append:     s.File.Append,
			BOMPrefix:  s.File.BOM,
			DateLayout: s.File.DateLayout,
		}); err != nil {
			return err
		}
		res.Stats.Exported += int64(t.Len())
		metrics.RecordRows(recipe, "exported", int64(t.Len()))
		return nil

	case "materialize":
		if err := transform.RequireRows(t); err != nil {
			return err
		}
		wt := t
		if len(s.DB.Columns) > 0 {
			var err error
			wt, err = t.Select(s.DB.Columns...)
			if err != nil {
				return err
			}
		}
		cfg := storage.Config{
			Kind:    s.DB.Kind,
			DSN:     s.DB.DSN,
			Table:   s.DB.Table,
			Columns: wt.Schema().Names(),
		}
		repo, err := newRepositoryFn(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open %s: %w", s.DB.Kind, err)
		}
		defer repo.Close()

		if s.DB.AutoCreateTable {
			if err := storage.EnsureTableFromSchema(ctx, cfg, wt.Schema(), repo); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
		}

		n, err := storage.WriteTable(ctx, repo, wt, rt.BatchSize, recipe)
		res.Stats.Inserted += n
		metrics.RecordRows(recipe, "inserted", n)
		if err != nil {
			return err
		}
		slog.Info("materialized",
			slog.String("kind", s.DB.Kind),
			slog.String("table", s.DB.Table),
			slog.Int64("rows", n))
		return nil

	case "snapshot":
		name := s.Snapshot.Name
		if name == "" {
			return fmt.Errorf("snapshot: name required")
		}
		if s.Snapshot.Transient {
			live := t
			res.Store.Transient(name, func() (*table.Table, error) { return live, nil })
		} else {
			res.Store.Materialize(name, t)
		}
		res.Snapshots = append(res.Snapshots, name)
		return nil

	default:
		return fmt.Errorf("unsupported sink kind %q", s.Kind)
	}
}
